package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestKindStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:      http.StatusBadRequest,
		KindIntegrity:       http.StatusBadRequest,
		KindAuthentication:  http.StatusUnauthorized,
		KindAuthorization:   http.StatusForbidden,
		KindNotFound:        http.StatusNotFound,
		KindConflict:        http.StatusConflict,
		KindLocked:          http.StatusLocked,
		KindTooManyRequests: http.StatusTooManyRequests,
		KindInternal:        http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := kind.Status(); got != want {
			t.Fatalf("kind %d: expected %d, got %d", kind, want, got)
		}
	}
}

func TestFromStore_Classifies(t *testing.T) {
	if KindOf(FromStore(gorm.ErrDuplicatedKey, "dup", "fk")) != KindConflict {
		t.Fatalf("expected conflict for gorm duplicate key")
	}
	if KindOf(FromStore(&pgconn.PgError{Code: "23505"}, "dup", "fk")) != KindConflict {
		t.Fatalf("expected conflict for postgres 23505")
	}
	if KindOf(FromStore(errors.New("constraint failed: UNIQUE constraint failed: families.name (2067)"), "dup", "fk")) != KindConflict {
		t.Fatalf("expected conflict for sqlite unique message")
	}
	if KindOf(FromStore(&pgconn.PgError{Code: "23503"}, "dup", "fk")) != KindIntegrity {
		t.Fatalf("expected integrity for postgres 23503")
	}
	if KindOf(FromStore(fmt.Errorf("wrap: %w", gorm.ErrForeignKeyViolated), "dup", "fk")) != KindIntegrity {
		t.Fatalf("expected integrity for wrapped gorm fk error")
	}
	if KindOf(FromStore(gorm.ErrRecordNotFound, "dup", "fk")) != KindNotFound {
		t.Fatalf("expected not found")
	}
	if KindOf(FromStore(errors.New("boom"), "dup", "fk")) != KindInternal {
		t.Fatalf("expected internal")
	}

	tagged := Locked("locked")
	if FromStore(tagged, "dup", "fk") != error(tagged) {
		t.Fatalf("expected tagged error to pass through")
	}
}
