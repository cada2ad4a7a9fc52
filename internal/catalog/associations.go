package catalog

import (
	"context"
	"fmt"

	"github.com/moz-herbarium/medplants/internal/apperr"
	"github.com/moz-herbarium/medplants/internal/audit"
	"github.com/moz-herbarium/medplants/internal/models"
	"gorm.io/gorm"
)

// Link identifies one association kind between two catalog entities.
type Link struct {
	joinTable  string
	leftTable  string
	leftCol    string
	leftLabel  string
	rightTable string
	rightCol   string
	rightLabel string
	row        func(left, right uint64) any
}

// Association kinds exposed over HTTP.
var (
	PlantAuthorLink = plantLink("plant_authors", "authors", "author_id", "author", func(l, r uint64) any {
		return &models.PlantAuthor{PlantID: l, AuthorID: r}
	})
	PlantProvinceLink = plantLink("plant_provinces", "provinces", "province_id", "site", func(l, r uint64) any {
		return &models.PlantProvince{PlantID: l, ProvinceID: r}
	})
	PlantReferenceLink = plantLink("plant_references", "bibliographic_references", "reference_id", "reference", func(l, r uint64) any {
		return &models.PlantReference{PlantID: l, ReferenceID: r}
	})
	PlantPropertyLink = plantLink("plant_properties", "pharmacological_properties", "property_id", "property", func(l, r uint64) any {
		return &models.PlantProperty{PlantID: l, PropertyID: r}
	})
	PlantCompoundLink = plantLink("plant_compounds", "chemical_compounds", "compound_id", "compound", func(l, r uint64) any {
		return &models.PlantCompound{PlantID: l, CompoundID: r}
	})
)

func plantLink(joinTable, rightTable, rightCol, rightLabel string, row func(left, right uint64) any) Link {
	return Link{
		joinTable:  joinTable,
		leftTable:  "plants",
		leftCol:    "plant_id",
		leftLabel:  "plant",
		rightTable: rightTable,
		rightCol:   rightCol,
		rightLabel: rightLabel,
		row:        row,
	}
}

// AuthorReferenceInput is the payload of the author-reference association.
type AuthorReferenceInput struct {
	Order int    `json:"ordem"`
	Role  string `json:"papel"`
}

// Associate links left to right. Both must exist; an existing link is a conflict.
func (s *Service) Associate(ctx context.Context, actor audit.Actor, link Link, left, right uint64) error {
	return s.associate(ctx, actor, link, left, right, link.row(left, right))
}

// AssociateAuthorReference links an author to a reference with order and role.
func (s *Service) AssociateAuthorReference(ctx context.Context, actor audit.Actor, authorID, referenceID uint64, in AuthorReferenceInput) error {
	role := models.AuthorRole(in.Role)
	if role == "" {
		role = models.AuthorRoleCoauthor
	}
	if !role.Valid() {
		return apperr.Validation("papel must be one of first, corresponding, coauthor")
	}
	if in.Order < 0 {
		return apperr.Validation("ordem must not be negative")
	}
	link := Link{
		joinTable:  "author_references",
		leftTable:  "authors",
		leftCol:    "author_id",
		leftLabel:  "author",
		rightTable: "bibliographic_references",
		rightCol:   "reference_id",
		rightLabel: "reference",
	}
	row := &models.AuthorReference{AuthorID: authorID, ReferenceID: referenceID, Order: in.Order, Role: role}
	return s.associate(ctx, actor, link, authorID, referenceID, row)
}

func (s *Service) associate(ctx context.Context, actor audit.Actor, link Link, left, right uint64, row any) error {
	return s.transaction(ctx, func(tx *gorm.DB) error {
		leftOK, errLeft := exists(tx, link.leftTable, left)
		if errLeft != nil {
			return errLeft
		}
		if !leftOK {
			return apperr.NotFound(link.leftLabel + " not found")
		}
		rightOK, errRight := exists(tx, link.rightTable, right)
		if errRight != nil {
			return errRight
		}
		if !rightOK {
			return apperr.NotFound(link.rightLabel + " not found")
		}

		var count int64
		if errCount := tx.Table(link.joinTable).
			Where(link.leftCol+" = ? AND "+link.rightCol+" = ?", left, right).
			Count(&count).Error; errCount != nil {
			return apperr.Internal("check association failed", errCount)
		}
		if count > 0 {
			return apperr.Conflict("already associated")
		}
		if errCreate := tx.Create(row).Error; errCreate != nil {
			return apperr.FromStore(errCreate, "already associated", "unknown linked record")
		}

		entry := actor.Entry(audit.ActionAssociate,
			fmt.Sprintf("associated %s %d with %s %d", link.rightLabel, right, link.leftLabel, left),
			link.joinTable, left)
		entry.NewData = map[string]uint64{link.leftCol: left, link.rightCol: right}
		s.audit.LogTx(tx, entry)
		return nil
	})
}

// Message is the confirmation text returned after a successful association.
func (l Link) Message() string {
	return l.rightLabel + " associated with " + l.leftLabel
}
