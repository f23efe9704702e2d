package models

import (
	"errors"
	"fmt"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentSequence hands out collision-free document numbers. The row is
// locked FOR UPDATE inside the caller's transaction, so concurrent invoice
// creation serializes on the increment instead of racing a count().
type DocumentSequence struct {
	ID         int       `gorm:"primary_key" json:"id"`
	DocType    string    `gorm:"size:10;uniqueIndex;not null" json:"doc_type"`
	Prefix     string    `gorm:"size:10;not null" json:"prefix"`
	LastNumber int       `gorm:"not null;default:0" json:"last_number"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// NextDocumentNumber allocates the next number for a document type, e.g.
// "SI-000042". The allocation participates in the caller's transaction and
// rolls back with it.
// Two transactions can race the very first allocation for a doc type: both
// miss the SELECT and one insert loses on the doc_type unique index. The
// loser retries once and picks up the winner's row under FOR UPDATE.
func NextDocumentNumber(tx *gorm.DB, docType string, prefix string) (string, error) {
	var seq DocumentSequence
	for attempt := 0; ; attempt++ {
		seq = DocumentSequence{DocType: docType, Prefix: prefix}
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("doc_type = ?", docType).
			FirstOrCreate(&seq)
		if result.Error == nil {
			break
		}
		if attempt == 0 && isDuplicateKeyErr(result.Error) {
			continue
		}
		return "", result.Error
	}

	next := seq.LastNumber + 1
	if err := tx.Model(&DocumentSequence{}).
		Where("id = ?", seq.ID).
		Update("last_number", next).Error; err != nil {
		return "", err
	}

	return FormatDocumentNumber(seq.Prefix, next), nil
}

func FormatDocumentNumber(prefix string, number int) string {
	return fmt.Sprintf("%s-%06d", prefix, number)
}

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
