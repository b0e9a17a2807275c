package storage

import (
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
)

// Table properties carry timestamps as EDM datetimes; the domain works in
// time.Time. These adapters convert in both directions, with nil standing in
// for absent optional dates.

func toEDM(t time.Time) aztables.EDMDateTime {
	return aztables.EDMDateTime(t.UTC())
}

func fromEDM(t aztables.EDMDateTime) time.Time {
	return time.Time(t).UTC()
}
