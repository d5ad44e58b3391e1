package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/models"
)

func rec(id, created string) models.OrderRecord {
	return models.OrderRecord{ID: id, CreatedAt: created, Date: models.ParseDate(created)}
}

func ids(recs []models.OrderRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func TestMerge_DedupFirstSeenWins(t *testing.T) {
	first := rec("7", "2025-09-28 19:28:18")
	first.Tracking = "AB123456789BR"
	dup := rec("7", "2025-09-28 19:28:18")
	dup.Tracking = "ZZ000000000BR"

	res := Merge([][]models.OrderRecord{
		{first, rec("8", "2025-09-27")},
		{dup, rec("9", "2025-09-26")},
	}, nil)

	assert.Equal(t, []string{"7", "8", "9"}, ids(res.Records))
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, "AB123456789BR", res.Records[0].Tracking)
}

func TestMerge_WindowFilter(t *testing.T) {
	w := &models.DateWindow{
		From: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC),
	}

	res := Merge([][]models.OrderRecord{{
		rec("1", "2025-08-31 23:59:59"),
		rec("2", "2025-09-01 00:00:00"),
		rec("3", "2025-09-30 22:00:00"),
		rec("4", "2025-10-01"),
		rec("5", "ontem"),
		rec("6", ""),
	}}, w)

	assert.Equal(t, []string{"2", "3", "5", "6"}, ids(res.Records))
}

func TestMerge_WindowNilKeepsEverything(t *testing.T) {
	res := Merge([][]models.OrderRecord{{rec("1", "1999-01-01")}}, nil)
	assert.Equal(t, 1, res.Count)
}

func TestMerge_EmptyIsNotNil(t *testing.T) {
	res := Merge(nil, nil)
	assert.NotNil(t, res.Records)
	assert.Zero(t, res.Count)
}

func TestSeen_Add(t *testing.T) {
	s := Seen{}
	assert.Equal(t, 2, s.Add([]models.OrderRecord{rec("1", ""), rec("2", "")}))
	assert.Equal(t, 1, s.Add([]models.OrderRecord{rec("2", ""), rec("3", "")}))
	assert.Equal(t, 0, s.Add([]models.OrderRecord{rec("1", "")}))
}
