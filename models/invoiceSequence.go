package models

import (
	"context"
	"fmt"
	"time"

	"github.com/kiranasoft/kirana_backend/config"
	"github.com/kiranasoft/kirana_backend/utils"
)

// FormatInvoiceNumber renders "{prefix}-{year}-{counter padded to 5 digits}".
// The counter is global, not reset at year rollover: the year in the string
// is the year of issuance, so "INV-2026-00341" can follow "INV-2025-00340".
// External tools parsing invoice numbers must not assume each year restarts
// at 00001.
func FormatInvoiceNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%05d", prefix, year, seq)
}

// NextInvoiceNumber issues the next sequence value and formats it. Redis INCR
// makes the increment atomic across terminals; on a cold counter the seed is
// max(sequence_no) over persisted sales or the configured starting number.
// Once issued, a number is consumed: an aborted finalize leaves a gap, it is
// never handed out again.
func NextInvoiceNumber(ctx context.Context) (string, int64, error) {
	settings, err := GetShopSettings(ctx)
	if err != nil {
		return "", 0, err
	}

	seq, err := utils.GetSequence[Sale](ctx, func(ctx context.Context) (int64, error) {
		db := config.GetDB()
		var dbSeq *int64
		if err := db.WithContext(ctx).Model(&Sale{}).
			Select("max(sequence_no)").
			Scan(&dbSeq).Error; err != nil {
			return 0, err
		}
		seed := settings.StartingInvoiceNumber - 1
		if dbSeq != nil && *dbSeq > seed {
			seed = *dbSeq
		}
		return seed, nil
	})
	if err != nil {
		return "", 0, err
	}

	return FormatInvoiceNumber(settings.InvoicePrefix, time.Now().Year(), seq), seq, nil
}
