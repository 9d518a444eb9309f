package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/sgkm-college/atkt-backend/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUnknownStream       = errors.New("unknown course stream")
	ErrMalformedRollNumber = errors.New("roll number does not encode a two-digit admission year")
	ErrAllocationFailed    = errors.New("seat number allocation failed after retries")
)

// errAllocConflict signals a lost conditional write; the caller retries.
var errAllocConflict = errors.New("seat counter conflict")

// courseLetters maps a stream code to the letter embedded in seat numbers.
var courseLetters = map[string]string{
	"CS":  "S",
	"IT":  "T",
	"BAF": "F",
	"BMS": "M",
}

// seatAllocRetries bounds how often a lost conditional write is retried
// before the whole allocation is reported as failed.
const seatAllocRetries = 5

// SeatService allocates exam seat numbers, sequential within one
// (admission year, stream) counter.
type SeatService struct {
	db *gorm.DB
}

// NewSeatService creates a new seat service
func NewSeatService(db *gorm.DB) *SeatService {
	return &SeatService{db: db}
}

// ParseSeatKey derives the counter key, admission year and course letter from
// a stream code and roll number. The admission year is encoded in the second
// and third characters of the roll number (e.g. "21S045" -> "21").
func ParseSeatKey(stream, rollNo string) (counterKey, admissionYear, courseLetter string, err error) {
	letter, ok := courseLetters[stream]
	if !ok {
		return "", "", "", fmt.Errorf("%w: %q", ErrUnknownStream, stream)
	}

	if len(rollNo) < 3 {
		return "", "", "", fmt.Errorf("%w: %q", ErrMalformedRollNumber, rollNo)
	}
	year := rollNo[1:3]
	for _, r := range year {
		if r < '0' || r > '9' {
			return "", "", "", fmt.Errorf("%w: %q", ErrMalformedRollNumber, rollNo)
		}
	}

	return year + "_" + stream, year, letter, nil
}

// FormatSeatNumber builds the final seat number string:
// two-digit admission year, course letter, running number padded to 3 digits.
func FormatSeatNumber(admissionYear, courseLetter string, running int) string {
	return fmt.Sprintf("%s%s%03d", admissionYear, courseLetter, running)
}

// AllocateSeatNumber atomically allocates the next running number for the
// (admission year, stream) counter and returns the formatted seat number.
// A missing counter means the running number is 1 and the stored state
// becomes 2. Every mutation is a conditional write, so concurrent
// submissions for the same key can never be handed the same number.
func (s *SeatService) AllocateSeatNumber(ctx context.Context, stream, rollNo string) (string, error) {
	key, year, letter, err := ParseSeatKey(stream, rollNo)
	if err != nil {
		return "", err
	}

	for attempt := 0; attempt < seatAllocRetries; attempt++ {
		running, err := s.tryAllocate(ctx, key)
		if err == nil {
			return FormatSeatNumber(year, letter, running), nil
		}
		if !errors.Is(err, errAllocConflict) {
			return "", err
		}
		log.Printf("[SEAT] conflict on counter %s (attempt %d), retrying", key, attempt+1)
	}

	return "", fmt.Errorf("%w: counter %s", ErrAllocationFailed, key)
}

// tryAllocate performs one read + conditional-write round against the
// counter. Returns errAllocConflict when another allocation won the write.
func (s *SeatService) tryAllocate(ctx context.Context, key string) (int, error) {
	var running int

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var counter model.SeatCounter
		err := tx.Where("id = ?", key).First(&counter).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			// First allocation for this key: hand out 1, store 2. A
			// concurrent creator loses on the primary key and retries.
			running = 1
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&model.SeatCounter{ID: key, Current: 2})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errAllocConflict
			}
			return nil
		}
		if err != nil {
			return err
		}

		running = counter.Current
		res := tx.Model(&model.SeatCounter{}).
			Where("id = ? AND current = ?", key, counter.Current).
			Update("current", counter.Current+1)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errAllocConflict
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return running, nil
}
