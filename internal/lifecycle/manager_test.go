package lifecycle_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tryon-backend/internal/lifecycle"
	"tryon-backend/internal/models"
	"tryon-backend/internal/store"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type broadcastRecorder struct {
	mu       sync.Mutex
	events   []string
	payloads []any
}

func (r *broadcastRecorder) Broadcast(event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
}

func (r *broadcastRecorder) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

func (r *broadcastRecorder) lastTryOnSnapshot(t *testing.T) []models.TryOnRequest {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i] != lifecycle.EventTryOnsUpdated {
			continue
		}
		payload, ok := r.payloads[i].(map[string]any)
		require.True(t, ok)
		snapshot, ok := payload["requests"].([]models.TryOnRequest)
		require.True(t, ok)
		return snapshot
	}
	t.Fatal("no try-on broadcast recorded")
	return nil
}

type testEnv struct {
	manager   *lifecycle.Manager
	store     *store.Store
	recorder  *broadcastRecorder
	clock     *fakeClock
	uploadDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	uploadDir := filepath.Join(dir, "uploads")
	require.NoError(t, os.MkdirAll(uploadDir, 0o755))

	st, err := store.Open(filepath.Join(dir, "data"))
	require.NoError(t, err)

	clock := &fakeClock{t: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	recorder := &broadcastRecorder{}

	manager := lifecycle.NewManager(st, recorder, lifecycle.Options{
		UploadDir:             uploadDir,
		DefaultTimeoutMinutes: 30,
		AllowedExtensions:     []string{"png", "jpg", "jpeg", "gif"},
		SelfieSize:            300,
		JPEGQuality:           85,
		Now:                   clock.Now,
	})

	return &testEnv{
		manager:   manager,
		store:     st,
		recorder:  recorder,
		clock:     clock,
		uploadDir: uploadDir,
	}
}

func (e *testEnv) seedProduct(t *testing.T, id string, timeoutMinutes int) {
	t.Helper()
	_, err := e.store.Products.Update(func(products []models.Product) ([]models.Product, error) {
		return append(products, models.Product{
			ID:             id,
			Name:           "Trail Runner",
			TimeoutMinutes: timeoutMinutes,
			CreatedAt:      e.clock.Now(),
		}), nil
	})
	require.NoError(t, err)
}

func testPhoto(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for x := 0; x < 320; x++ {
		for y := 0; y < 240; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x % 256), B: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCreateTryOnUnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.manager.CreateTryOn(lifecycle.TryOnSubmission{ProductID: "ghost"})
	assert.ErrorIs(t, err, lifecycle.ErrProductNotFound)

	requests, err := env.manager.ListTryOns()
	require.NoError(t, err)
	assert.Empty(t, requests, "a rejected create must persist nothing")
	assert.Equal(t, 0, env.recorder.count(lifecycle.EventTryOnsUpdated))
}

func TestCreateTryOnSnapshotsProduct(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 45)

	req, err := env.manager.CreateTryOn(lifecycle.TryOnSubmission{
		ProductID: "p1",
		Name:      "Dana",
		Size:      "9.5",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, req.ID)
	assert.Equal(t, "Trail Runner", req.ProductName)
	assert.Equal(t, 45, req.TimeoutMinutes)
	assert.Empty(t, req.Selfie)

	requests, err := env.manager.ListTryOns()
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, req.ID, requests[0].ID)

	assert.Equal(t, 1, env.recorder.count(lifecycle.EventTryOnsUpdated))
	assert.Len(t, env.recorder.lastTryOnSnapshot(t), 1)
}

func TestCreateTryOnStoresSelfie(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 30)

	req, err := env.manager.CreateTryOn(lifecycle.TryOnSubmission{
		ProductID: "p1",
		Name:      "Dana",
		PhotoName: "selfie.png",
		Photo:     testPhoto(t),
	})
	require.NoError(t, err)

	require.Equal(t, req.ID+".png", req.Selfie)
	assert.FileExists(t, filepath.Join(env.uploadDir, req.Selfie))
}

func TestCreateTryOnRejectsBadExtension(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 30)

	req, err := env.manager.CreateTryOn(lifecycle.TryOnSubmission{
		ProductID: "p1",
		Name:      "Dana",
		PhotoName: "selfie.exe",
		Photo:     []byte{1, 2, 3},
	})
	require.NoError(t, err, "a bad upload must not block the submission")
	assert.Empty(t, req.Selfie)

	requests, err := env.manager.ListTryOns()
	require.NoError(t, err)
	assert.Len(t, requests, 1)
}

func TestCreateTryOnCorruptPhotoFallsBack(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 30)

	raw := []byte("corrupt but accepted extension")
	req, err := env.manager.CreateTryOn(lifecycle.TryOnSubmission{
		ProductID: "p1",
		PhotoName: "selfie.jpg",
		Photo:     raw,
	})
	require.NoError(t, err)
	require.NotEmpty(t, req.Selfie)

	data, err := os.ReadFile(filepath.Join(env.uploadDir, req.Selfie))
	require.NoError(t, err)
	assert.Equal(t, raw, data, "normalization failure stores the original upload")
}

func TestDeleteTryOnReclaimsSelfie(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 30)

	req, err := env.manager.CreateTryOn(lifecycle.TryOnSubmission{
		ProductID: "p1",
		PhotoName: "selfie.png",
		Photo:     testPhoto(t),
	})
	require.NoError(t, err)

	selfiePath := filepath.Join(env.uploadDir, req.Selfie)
	require.FileExists(t, selfiePath)

	require.NoError(t, env.manager.DeleteTryOn(req.ID))

	requests, err := env.manager.ListTryOns()
	require.NoError(t, err)
	assert.Empty(t, requests)
	assert.NoFileExists(t, selfiePath)
}

func TestDeleteTryOnMissingIDStillBroadcasts(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 30)

	_, err := env.manager.CreateTryOn(lifecycle.TryOnSubmission{ProductID: "p1", Name: "Dana"})
	require.NoError(t, err)
	before := env.recorder.count(lifecycle.EventTryOnsUpdated)

	require.NoError(t, env.manager.DeleteTryOn("no-such-id"))

	requests, err := env.manager.ListTryOns()
	require.NoError(t, err)
	assert.Len(t, requests, 1, "deleting an unknown id is a no-op on the set")
	assert.Equal(t, before+1, env.recorder.count(lifecycle.EventTryOnsUpdated),
		"the unchanged snapshot is still broadcast")
}

func TestSweepExpiresRequest(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 1)

	req, err := env.manager.CreateTryOn(lifecycle.TryOnSubmission{
		ProductID: "p1",
		Name:      "Dana",
		PhotoName: "selfie.png",
		Photo:     testPhoto(t),
	})
	require.NoError(t, err)

	requests, err := env.manager.ListTryOns()
	require.NoError(t, err)
	require.Len(t, requests, 1)

	selfiePath := filepath.Join(env.uploadDir, req.Selfie)
	broadcastsBefore := env.recorder.count(lifecycle.EventTryOnsUpdated)

	env.clock.Advance(61 * time.Second)
	env.manager.Sweep()

	requests, err = env.manager.ListTryOns()
	require.NoError(t, err)
	assert.Empty(t, requests)
	assert.NoFileExists(t, selfiePath)

	assert.Equal(t, broadcastsBefore+1, env.recorder.count(lifecycle.EventTryOnsUpdated),
		"exactly one broadcast for the eviction")
	assert.Empty(t, env.recorder.lastTryOnSnapshot(t))
}

func TestSweepKeepsLiveRequests(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "short", 1)
	env.seedProduct(t, "long", 60)

	_, err := env.manager.CreateTryOn(lifecycle.TryOnSubmission{ProductID: "short", Name: "A"})
	require.NoError(t, err)
	keep, err := env.manager.CreateTryOn(lifecycle.TryOnSubmission{ProductID: "long", Name: "B"})
	require.NoError(t, err)

	env.clock.Advance(2 * time.Minute)
	env.manager.Sweep()

	requests, err := env.manager.ListTryOns()
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, keep.ID, requests[0].ID)
}

func TestSweepNoExpirationsIsSilent(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 30)

	_, err := env.manager.CreateTryOn(lifecycle.TryOnSubmission{ProductID: "p1", Name: "Dana"})
	require.NoError(t, err)
	before := env.recorder.count(lifecycle.EventTryOnsUpdated)

	env.clock.Advance(time.Minute)
	env.manager.Sweep()

	assert.Equal(t, before, env.recorder.count(lifecycle.EventTryOnsUpdated),
		"a sweep with nothing expired must not rebroadcast")
	assert.Equal(t, 0, env.recorder.count(lifecycle.EventHelpUpdated))
}

func TestSweepStillLiveAtExpiryInstantMinusOne(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 1)

	_, err := env.manager.CreateTryOn(lifecycle.TryOnSubmission{ProductID: "p1"})
	require.NoError(t, err)

	env.clock.Advance(time.Minute - time.Second)
	env.manager.Sweep()

	requests, err := env.manager.ListTryOns()
	require.NoError(t, err)
	assert.Len(t, requests, 1, "strictly before the expiry instant the record is live")
}

func TestCreateHelpWithCatalogSnapshot(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.store.Catalog.Update(func(entries []models.CatalogProduct) ([]models.CatalogProduct, error) {
		return append(entries, models.CatalogProduct{
			ID:          "c1",
			Barcode:     "012345678905",
			Brand:       "Acme",
			Description: "Canvas high-top",
			Price:       59.99,
			Inventory:   12,
		}), nil
	})
	require.NoError(t, err)

	req, err := env.manager.CreateHelp(lifecycle.HelpSubmission{
		RequestType: models.HelpTypeProduct,
		Name:        "Sam",
		Barcode:     "012345678905",
	})
	require.NoError(t, err)

	require.NotNil(t, req.ProductInfo)
	assert.Equal(t, "Acme", req.ProductInfo.Brand)
	assert.Equal(t, 59.99, req.ProductInfo.Price)
	assert.Equal(t, 30, req.TimeoutMinutes)
	assert.Equal(t, 1, env.recorder.count(lifecycle.EventHelpUpdated))
}

func TestCreateHelpUnknownBarcode(t *testing.T) {
	env := newTestEnv(t)

	req, err := env.manager.CreateHelp(lifecycle.HelpSubmission{
		RequestType: models.HelpTypeProduct,
		Name:        "Sam",
		Barcode:     "000000000000",
	})
	require.NoError(t, err, "an unresolved barcode does not reject the request")
	assert.Nil(t, req.ProductInfo)

	requests, err := env.manager.ListHelp()
	require.NoError(t, err)
	assert.Len(t, requests, 1)
}

func TestCreateHelpDefaultsToAssociate(t *testing.T) {
	env := newTestEnv(t)

	req, err := env.manager.CreateHelp(lifecycle.HelpSubmission{Name: "Sam"})
	require.NoError(t, err)
	assert.Equal(t, models.HelpTypeAssociate, req.RequestType)
}

func TestHelpStreamExpiresIndependently(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 120)

	_, err := env.manager.CreateTryOn(lifecycle.TryOnSubmission{ProductID: "p1"})
	require.NoError(t, err)
	_, err = env.manager.CreateHelp(lifecycle.HelpSubmission{Name: "Sam"})
	require.NoError(t, err)

	tryOnBefore := env.recorder.count(lifecycle.EventTryOnsUpdated)

	// Past the 30 minute help timeout but well inside the try-on timeout.
	env.clock.Advance(31 * time.Minute)
	env.manager.Sweep()

	help, err := env.manager.ListHelp()
	require.NoError(t, err)
	assert.Empty(t, help)

	tryOns, err := env.manager.ListTryOns()
	require.NoError(t, err)
	assert.Len(t, tryOns, 1)
	assert.Equal(t, tryOnBefore, env.recorder.count(lifecycle.EventTryOnsUpdated),
		"the untouched stream is not rebroadcast")
}

func TestConcurrentCreateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 30)

	const rounds = 25
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := env.manager.CreateTryOn(lifecycle.TryOnSubmission{ProductID: "p1", Name: "x"})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			requests, err := env.manager.ListTryOns()
			if !assert.NoError(t, err) {
				return
			}
			if len(requests) > 0 {
				assert.NoError(t, env.manager.DeleteTryOn(requests[0].ID))
			}
		}()
	}
	wg.Wait()

	// Whatever interleaving happened, the persisted set must be readable.
	requests, err := env.manager.ListTryOns()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(requests), rounds)
}
