package repo

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// A redelivered reserve for a ref that already holds funds must return the
// existing reservation, even when the remaining balance is below the stake:
// the lookup runs before the funds check. No balance query is expected here,
// so a funds check firing first fails the mock.
func TestReserveRedeliveryReturnsExistingHold(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	p := NewPostgres(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM wallets WHERE user_id=$1 FOR UPDATE`)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("w1"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM wallet_reservations WHERE wallet_id=$1 AND external_ref=$2`)).
		WithArgs("w1", "bet-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("res-1"))
	mock.ExpectRollback()

	id, err := p.Reserve(context.Background(), "u1", 100, "bet-1")
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if id != "res-1" {
		t.Errorf("reservation id = %q, want existing res-1", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestReserveInsufficientFunds(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	p := NewPostgres(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM wallets WHERE user_id=$1 FOR UPDATE`)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("w1"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM wallet_reservations WHERE wallet_id=$1 AND external_ref=$2`)).
		WithArgs("w1", "bet-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT balance FROM wallets WHERE id=$1`)).
		WithArgs("w1").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(50))
	mock.ExpectRollback()

	if _, err := p.Reserve(context.Background(), "u1", 100, "bet-1"); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Reserve err = %v, want ErrInsufficientFunds", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
