package export

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtracker/medtracker/internal/config"
	"github.com/medtracker/medtracker/internal/db/controller/medicine"
	"github.com/medtracker/medtracker/internal/db/controller/setting"
	"github.com/medtracker/medtracker/internal/db/models"
	"github.com/medtracker/medtracker/internal/db/testdb"
	"github.com/medtracker/medtracker/internal/export"
)

func TestGet(t *testing.T) {
	db := testdb.New(t)
	now := time.Date(2026, 10, 19, 13, 0, 0, 0, time.UTC)

	res, err := medicine.Create(db, &models.Medicine{
		Name:        "Metformin",
		Dosage:      "500mg",
		TimesPerDay: 1,
		Schedule:    []string{"08:00"},
		StartDate:   "2026-10-19",
	}, "2026-10-19")
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	require.NoError(t, medicine.Deactivate(db, *res.Entries[0].MedicineID))
	require.NoError(t, setting.EnsureDefaults(db))

	app := fiber.New()
	s := &Service{now: func() time.Time { return now }}
	require.NoError(t, s.Init(app, &config.Config{}, db))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/export", nil))
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var snapshot export.Snapshot
	require.NoError(t, json.Unmarshal(body, &snapshot))

	require.Len(t, snapshot.Medicines, 1)
	assert.False(t, snapshot.Medicines[0].IsActive)
	assert.Len(t, snapshot.Logs, 1)
	assert.Len(t, snapshot.Settings, len(setting.Defaults))
	assert.True(t, now.Equal(snapshot.ExportedAt))
}
