package dashboard

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moz-herbarium/medplants/internal/apperr"
	"github.com/moz-herbarium/medplants/internal/audit"
	"github.com/moz-herbarium/medplants/internal/db"
	"github.com/moz-herbarium/medplants/internal/imagestore"
	"github.com/moz-herbarium/medplants/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *gorm.DB, *imagestore.Store) {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open("file:" + filepath.Join(dir, "dashboard-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })
	require.NoError(t, db.Migrate(conn))

	store, err := imagestore.Open(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := NewService(conn, audit.NewWriter(conn), store).WithClock(func() time.Time { return testNow })
	return svc, conn, store
}

func seedFamily(t *testing.T, conn *gorm.DB, name string) models.Family {
	t.Helper()
	family := models.Family{Name: name}
	require.NoError(t, conn.Create(&family).Error)
	return family
}

func seedPlant(t *testing.T, conn *gorm.DB, familyID uint64, name string, added time.Time) models.Plant {
	t.Helper()
	plant := models.Plant{ScientificName: name, CanonicalName: name, FamilyID: familyID, DateAdded: added}
	require.NoError(t, conn.Create(&plant).Error)
	return plant
}

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperr.KindOf(err), "unexpected error: %v", err)
}

func TestStats_MatchesAggregates(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	fabaceae := seedFamily(t, conn, "Fabaceae")
	seedPlant(t, conn, fabaceae.ID, "Cassia abbreviata", testNow)
	seedPlant(t, conn, fabaceae.ID, "Tamarindus indica", testNow)
	require.NoError(t, conn.Create(&models.Province{Name: "Maputo"}).Error)

	var profile models.UserProfile
	require.NoError(t, conn.Where("name = ?", "Editor").First(&profile).Error)
	locked := testNow.Add(10 * time.Minute)
	expired := testNow.Add(-10 * time.Minute)
	users := []models.User{
		{FullName: "A", Email: "a@x.mz", PasswordHash: "x", ProfileID: profile.ID, Active: true},
		{FullName: "B", Email: "b@x.mz", PasswordHash: "x", ProfileID: profile.ID, Active: true, LockedUntil: &locked},
		{FullName: "C", Email: "c@x.mz", PasswordHash: "x", ProfileID: profile.ID, Active: true, LockedUntil: &expired},
	}
	require.NoError(t, conn.Create(&users).Error)
	require.NoError(t, conn.Model(&models.User{}).Where("email = ?", "c@x.mz").Update("active", false).Error)

	sessions := []models.Session{
		{ID: "s1", UserID: users[0].ID, TokenHash: "h1", ExpiresAt: testNow.Add(time.Hour), Active: true},
		{ID: "s2", UserID: users[0].ID, TokenHash: "h2", ExpiresAt: testNow.Add(-time.Hour), Active: true},
		{ID: "s3", UserID: users[1].ID, TokenHash: "h3", ExpiresAt: testNow.Add(time.Hour), Active: true},
	}
	require.NoError(t, conn.Create(&sessions).Error)
	require.NoError(t, conn.Model(&models.Session{}).Where("id = ?", "s3").Update("active", false).Error)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalPlants)
	assert.Equal(t, int64(1), stats.TotalFamilies)
	assert.Equal(t, int64(1), stats.TotalProvinces)
	assert.Equal(t, int64(0), stats.TotalAuthors)
	assert.Equal(t, int64(0), stats.TotalReferences)
	assert.Equal(t, int64(2), stats.ActiveUsers)
	assert.Equal(t, int64(1), stats.LockedUsers)
	assert.Equal(t, int64(1), stats.ActiveSessions)
}

func TestReports_RecentPlantsAndTopFamilies(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	fabaceae := seedFamily(t, conn, "Fabaceae")
	rubiaceae := seedFamily(t, conn, "Rubiaceae")
	seedFamily(t, conn, "Apocynaceae")
	for i := 0; i < 12; i++ {
		seedPlant(t, conn, fabaceae.ID, "Fabaceae sp. "+string(rune('a'+i)), testNow.Add(time.Duration(i)*time.Hour))
	}
	seedPlant(t, conn, rubiaceae.ID, "Vangueria infausta", testNow.Add(-time.Hour))

	recent, err := svc.RecentPlants(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, DefaultRecentPlants)
	assert.Equal(t, "Fabaceae sp. l", recent[0].ScientificName)
	assert.Equal(t, "Fabaceae", recent[0].FamilyName)
	for i := 1; i < len(recent); i++ {
		assert.False(t, recent[i].DateAdded.After(recent[i-1].DateAdded), "recent plants out of order at %d", i)
	}

	top, err := svc.TopFamilies(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "Fabaceae", top[0].Name)
	assert.Equal(t, int64(12), top[0].TotalPlants)
	assert.Equal(t, "Rubiaceae", top[1].Name)
	assert.Equal(t, int64(0), top[2].TotalPlants)

	top, err = svc.TopFamilies(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestImages_AttachListDelete(t *testing.T) {
	svc, conn, store := newTestService(t)
	ctx := context.Background()
	actor := audit.Actor{UserID: audit.Uint64Ptr(1)}

	family := seedFamily(t, conn, "Fabaceae")
	plant := seedPlant(t, conn, family.ID, "Cassia abbreviata", testNow)

	second, err := svc.AttachImage(ctx, actor, plant.ID, ImageUpload{
		Filename: "../../casca.JPG",
		Size:     5,
		Order:    2,
		Body:     strings.NewReader("bytes"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(second.Filename, "_casca.JPG"), second.Filename)
	assert.NotContains(t, second.Filename, "/")

	first, err := svc.AttachImage(ctx, actor, plant.ID, ImageUpload{Filename: "folha.png", Order: 1, Caption: " folha "})
	require.NoError(t, err)
	assert.Equal(t, "folha", first.Caption)

	images, err := svc.ListImages(ctx, plant.ID)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, first.ID, images[0].ID)
	assert.Equal(t, second.ID, images[1].ID)

	file, err := store.Open(second.Filename)
	require.NoError(t, err)
	require.NoError(t, file.Close())

	require.NoError(t, svc.DeleteImage(ctx, actor, second.ID))
	_, err = store.Open(second.Filename)
	assert.Error(t, err)
	requireKind(t, svc.DeleteImage(ctx, actor, second.ID), apperr.KindNotFound)

	var uploads, deletes int64
	require.NoError(t, conn.Model(&models.AuditLog{}).Where("action = ?", audit.ActionUploadImage).Count(&uploads).Error)
	require.NoError(t, conn.Model(&models.AuditLog{}).Where("action = ?", audit.ActionDeleteImage).Count(&deletes).Error)
	assert.Equal(t, int64(2), uploads)
	assert.Equal(t, int64(1), deletes)
}

func TestImages_Validation(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	family := seedFamily(t, conn, "Fabaceae")
	plant := seedPlant(t, conn, family.ID, "Cassia abbreviata", testNow)

	_, err := svc.AttachImage(ctx, audit.Actor{}, plant.ID, ImageUpload{Filename: "notes.pdf"})
	requireKind(t, err, apperr.KindValidation)

	_, err = svc.AttachImage(ctx, audit.Actor{}, plant.ID, ImageUpload{Filename: "big.png", Size: imagestore.MaxImageBytes + 1})
	requireKind(t, err, apperr.KindValidation)

	_, err = svc.AttachImage(ctx, audit.Actor{}, plant.ID, ImageUpload{
		Filename: "stream.png",
		Size:     -1,
		Body:     strings.NewReader(strings.Repeat("x", int(imagestore.MaxImageBytes)+1)),
	})
	requireKind(t, err, apperr.KindValidation)

	_, err = svc.AttachImage(ctx, audit.Actor{}, plant.ID+99, ImageUpload{Filename: "folha.png"})
	requireKind(t, err, apperr.KindNotFound)

	_, err = svc.ListImages(ctx, plant.ID+99)
	requireKind(t, err, apperr.KindNotFound)

	var rows int64
	require.NoError(t, conn.Model(&models.PlantImage{}).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestListAudit_FilterAndOrder(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	writer := audit.NewWriter(conn)
	for i, action := range []string{audit.ActionLogin, audit.ActionCreatePlant, audit.ActionLogin} {
		at := testNow.Add(time.Duration(i) * time.Minute)
		writer.WithClock(func() time.Time { return at }).Log(ctx, audit.Entry{
			Action:      action,
			Description: action,
			NewData:     map[string]any{"n": i},
		})
	}

	page, err := svc.ListAudit(ctx, 1, 0, "login")
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Pagination.Total)
	require.Len(t, page.Items, 2)
	assert.True(t, page.Items[0].CreatedAt.After(page.Items[1].CreatedAt))
	assert.JSONEq(t, `{"n":2}`, string(page.Items[0].NewData))

	page, err = svc.ListAudit(ctx, 2, 2, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.Pages)
	assert.Len(t, page.Items, 1)
}

func TestTopSearches(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	logs := []models.SearchLog{
		{Term: "Cassia", Kind: models.SearchKindScientific, CreatedAt: testNow},
		{Term: "cassia", Kind: models.SearchKindScientific, CreatedAt: testNow},
		{Term: "malária", Kind: models.SearchKindIndication, CreatedAt: testNow},
		{Term: "Árvore", Kind: models.SearchKindCommonName, CreatedAt: testNow},
		{Term: "árvore", Kind: models.SearchKindCommonName, CreatedAt: testNow},
		{Term: "ÁRVORE", Kind: models.SearchKindCommonName, CreatedAt: testNow},
	}
	require.NoError(t, conn.Create(&logs).Error)

	top, err := svc.TopSearches(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "árvore", top[0].Term)
	assert.Equal(t, int64(3), top[0].Searches)
	assert.Equal(t, "cassia", top[1].Term)
	assert.Equal(t, int64(2), top[1].Searches)
}
