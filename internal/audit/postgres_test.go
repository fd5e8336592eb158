package audit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGSinkAppend(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := &Entry{
		ID:          "01TEST",
		Timestamp:   ts,
		PrincipalID: "dealer-1",
		Email:       "dealer-1@example.com",
		Action:      "subaccount.create",
		Resource:    "subaccount",
		Effect:      "Allow",
		IPAddress:   "203.0.113.9",
		UserAgent:   "test-agent",
	}
	mock.ExpectExec("insert into audit_log").
		WithArgs("01TEST", ts, "dealer-1", "dealer-1@example.com", "subaccount.create",
			"subaccount", "Allow", "", "203.0.113.9", "test-agent").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewPGSink(db).Append(context.Background(), entry); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
