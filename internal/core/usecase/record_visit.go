package usecase

import (
	"context"
	"storefront-service/internal/contextkeys"
	"storefront-service/internal/core/domain"
	"storefront-service/internal/core/port"
	"sync"
	"time"
)

const visitRecordTimeout = 5 * time.Second

// RecordVisitUseCase отправляет событие просмотра в фоне. Ошибки только логируются.
type RecordVisitUseCase struct {
	recorder port.VisitRecorderPort
	now      func() time.Time
	wg       sync.WaitGroup
}

func NewRecordVisitUseCase(recorder port.VisitRecorderPort) *RecordVisitUseCase {
	return &RecordVisitUseCase{recorder: recorder, now: time.Now}
}

func (uc *RecordVisitUseCase) Execute(ctx context.Context, itemID int, itemType string) {
	visit := domain.Visit{ItemID: itemID, ItemType: itemType, Timestamp: uc.now().UTC()}
	bg := contextkeys.Detach(ctx)

	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()

		logger := contextkeys.LoggerFromContext(bg).WithFields(port.Fields{
			"use_case":  "RecordVisit",
			"item_id":   visit.ItemID,
			"item_type": visit.ItemType,
		})

		sendCtx, cancel := context.WithTimeout(bg, visitRecordTimeout)
		defer cancel()

		if err := uc.recorder.RecordVisit(sendCtx, visit); err != nil {
			logger.Warn("Failed to record visit", port.Fields{"error": err.Error()})
			return
		}
		logger.Debug("Visit recorded", nil)
	}()
}

// Wait дожидается всех отправок, запущенных к этому моменту.
func (uc *RecordVisitUseCase) Wait() {
	uc.wg.Wait()
}
