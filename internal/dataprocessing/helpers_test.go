package dataprocessing

import (
	"io"
	"log/slog"
	"time"

	"uberfares/internal/config"
	"uberfares/pkg/contracts/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPipelineConfig() config.PipelineConfig {
	return config.Default().Pipeline
}

var refPickup = time.Date(2015, 5, 7, 19, 52, 6, 0, time.UTC)

// trip is a record at refPickup with the given fare and passengers on a
// short Manhattan route
func trip(fare float64, passengers int) domain.TripRecord {
	return domain.TripRecord{
		FareAmount:       fare,
		PickupDatetime:   refPickup,
		PickupLongitude:  -73.999817,
		PickupLatitude:   40.738354,
		DropoffLongitude: -73.999512,
		DropoffLatitude:  40.723217,
		PassengerCount:   passengers,
	}
}

func tableOf(records ...domain.TripRecord) *domain.TripTable {
	return &domain.TripTable{
		Columns: append([]string(nil), domain.RequiredColumns...),
		Records: records,
	}
}
