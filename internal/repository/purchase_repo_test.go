package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"portal/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// mockDB opens gorm on a mocked connection for the named dialect.
func mockDB(t *testing.T, dialect string) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	var dialector gorm.Dialector
	switch dialect {
	case "postgres":
		dialector = postgres.New(postgres.Config{Conn: sqlDB})
	case "mysql":
		dialector = mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true})
	default:
		t.Fatalf("unknown dialect %q", dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	return db, mock
}

// pattern matches SQL containing each fragment in order.
func pattern(fragments ...string) string {
	quoted := make([]string, len(fragments))
	for i, f := range fragments {
		quoted[i] = regexp.QuoteMeta(f)
	}
	return strings.Join(quoted, ".*")
}

var guardedUpdate = pattern("UPDATE ", "purchase_requests", "SET ", "approval", `updated_at`, "GREATEST(", "updated_at + 1)",
	"WHERE purchase_id = ", "AND updated_at = ", "AND approval <> ")

var findPurchase = pattern("SELECT * FROM ", "purchase_requests", "WHERE purchase_id = ")

func purchaseRows(approval int, updatedAt int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"purchase_id", "submitted_by", "approval", "updated_at"}).
		AddRow(int64(7), "a@example.org", approval, updatedAt)
}

func TestPurchaseRepository_GuardedUpdate(t *testing.T) {
	approved := model.ApprovalAdminApproved
	seen := int64(100)
	guard := UpdateGuard{ExpectedUpdatedAt: &seen, Unlocked: true}

	cases := []struct {
		name     string
		affected int64
		current  func() *sqlmock.Rows
		wantErr  error
	}{
		{"applied", 1, func() *sqlmock.Rows { return purchaseRows(model.ApprovalAdminApproved, 101) }, nil},
		{"stale token", 0, func() *sqlmock.Rows { return purchaseRows(model.ApprovalAdminApproved, 150) }, ErrStaleUpdate},
		{"locked", 0, func() *sqlmock.Rows { return purchaseRows(model.ApprovalMentorApproved, 150) }, ErrPurchaseLocked},
		{"missing", 0, func() *sqlmock.Rows { return sqlmock.NewRows([]string{"purchase_id"}) }, ErrPurchaseNotFound},
	}

	for _, dialect := range []string{"postgres", "mysql"} {
		for _, tc := range cases {
			t.Run(dialect+"/"+tc.name, func(t *testing.T) {
				db, mock := mockDB(t, dialect)
				repo := NewPurchaseRepository(db)

				mock.ExpectExec(guardedUpdate).
					WithArgs(model.ApprovalAdminApproved, sqlmock.AnyArg(), int64(7), seen, model.ApprovalMentorApproved).
					WillReturnResult(sqlmock.NewResult(0, tc.affected))
				mock.ExpectQuery(findPurchase).WillReturnRows(tc.current())

				got, err := repo.UpdateByPurchaseID(context.Background(), 7, model.PurchaseChanges{Approval: &approved}, guard)
				if tc.wantErr != nil {
					if !errors.Is(err, tc.wantErr) {
						t.Fatalf("expected %v, got %v", tc.wantErr, err)
					}
				} else if err != nil || got.UpdatedAt != 101 || got.Approval != model.ApprovalAdminApproved {
					t.Fatalf("got %+v, %v", got, err)
				}
				if err := mock.ExpectationsWereMet(); err != nil {
					t.Fatal(err)
				}
			})
		}
	}
}

func TestPurchaseRepository_UpdateErrorIsWrapped(t *testing.T) {
	db, mock := mockDB(t, "postgres")
	boom := errors.New("connection reset")
	mock.ExpectExec(guardedUpdate).WillReturnError(boom)

	approved := model.ApprovalAdminApproved
	seen := int64(1)
	_, err := NewPurchaseRepository(db).UpdateByPurchaseID(context.Background(), 7, model.PurchaseChanges{Approval: &approved}, UpdateGuard{ExpectedUpdatedAt: &seen, Unlocked: true})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
}

func TestCounterStatements(t *testing.T) {
	cases := []struct {
		dialect string
		upsert  string
	}{
		{"postgres", "ON CONFLICT DO NOTHING"},
		{"mysql", "ON DUPLICATE KEY UPDATE"},
	}
	for _, tc := range cases {
		db, _ := mockDB(t, tc.dialect)
		dry := db.Session(&gorm.Session{DryRun: true})

		insert := initCounter(dry).Statement.SQL.String()
		if !strings.Contains(insert, "purchase_counters") || !strings.Contains(insert, tc.upsert) {
			t.Errorf("%s counter insert: %s", tc.dialect, insert)
		}

		var counter model.PurchaseCounter
		lock := lockCounter(dry, &counter).Statement.SQL.String()
		if !strings.Contains(lock, "purchase_counters") || !strings.HasSuffix(lock, "FOR UPDATE") {
			t.Errorf("%s counter lock: %s", tc.dialect, lock)
		}
	}
}
