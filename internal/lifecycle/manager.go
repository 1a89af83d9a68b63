package lifecycle

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"tryon-backend/internal/models"
	"tryon-backend/internal/selfie"
	"tryon-backend/internal/store"
)

// Broadcast event names, one per stream kind. The two streams are never
// merged onto one event.
const (
	EventTryOnsUpdated = "requests_updated"
	EventHelpUpdated   = "help_requests_updated"
)

var ErrProductNotFound = errors.New("product not found")

// Broadcaster pushes a full stream snapshot to every connected dashboard.
// Delivery is fire-and-forget.
type Broadcaster interface {
	Broadcast(event string, payload any)
}

// Options configure a Manager.
type Options struct {
	UploadDir             string
	DefaultTimeoutMinutes int
	AllowedExtensions     []string
	SelfieSize            int
	JPEGQuality           int

	// Now is the clock used for liveness decisions; defaults to time.Now.
	Now func() time.Time
}

// Manager owns the ephemeral request lifecycle for both streams: creation,
// expiry sweeps, manual deletion, selfie reclamation and the decision of
// when to broadcast. It keeps no state of its own; everything is derived
// from the store and the clock at call time.
type Manager struct {
	store    *store.Store
	notifier Broadcaster
	opts     Options
	now      func() time.Time
}

func NewManager(st *store.Store, notifier Broadcaster, opts Options) *Manager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		store:    st,
		notifier: notifier,
		opts:     opts,
		now:      now,
	}
}

// TryOnSubmission is the customer form payload for a try-on request.
type TryOnSubmission struct {
	ProductID string
	Name      string
	Size      string
	PhotoName string
	Photo     []byte
}

// HelpSubmission is the customer form payload for a help request.
type HelpSubmission struct {
	RequestType string
	Name        string
	Barcode     string
	PhotoName   string
	Photo       []byte
}

// CreateTryOn registers a new try-on request. The referenced product must
// exist; its name and timeout are snapshotted onto the request. A photo, if
// attached and acceptable, is normalized and stored under the new request's
// id. The full updated stream is broadcast after the record is persisted.
func (m *Manager) CreateTryOn(sub TryOnSubmission) (models.TryOnRequest, error) {
	products, err := m.store.Products.Load()
	if err != nil {
		return models.TryOnRequest{}, err
	}

	var product *models.Product
	for i := range products {
		if products[i].ID == sub.ProductID {
			product = &products[i]
			break
		}
	}
	if product == nil {
		return models.TryOnRequest{}, fmt.Errorf("%w: %s", ErrProductNotFound, sub.ProductID)
	}

	req := models.TryOnRequest{
		ID:             uuid.New().String(),
		ProductID:      product.ID,
		ProductName:    product.Name,
		Name:           sub.Name,
		Size:           sub.Size,
		CreatedAt:      m.now(),
		TimeoutMinutes: product.TimeoutMinutes,
	}
	req.Selfie = m.saveSelfie(req.ID, sub.PhotoName, sub.Photo)

	updated, err := m.store.TryOns.Update(func(reqs []models.TryOnRequest) ([]models.TryOnRequest, error) {
		return append(reqs, req), nil
	})
	if err != nil {
		// The record never made it in, so its selfie has no owner.
		m.reclaimSelfie(req.Selfie)
		return models.TryOnRequest{}, err
	}

	m.notifier.Broadcast(EventTryOnsUpdated, snapshotPayload(updated))
	return req, nil
}

// CreateHelp registers a new help request. When a barcode is supplied and
// resolves in the catalog, the catalog fields are snapshotted onto the
// request; an unresolved barcode just leaves the snapshot empty.
func (m *Manager) CreateHelp(sub HelpSubmission) (models.HelpRequest, error) {
	requestType := sub.RequestType
	if requestType != models.HelpTypeProduct {
		requestType = models.HelpTypeAssociate
	}

	req := models.HelpRequest{
		ID:             uuid.New().String(),
		RequestType:    requestType,
		Name:           sub.Name,
		Barcode:        sub.Barcode,
		CreatedAt:      m.now(),
		TimeoutMinutes: m.opts.DefaultTimeoutMinutes,
	}

	if sub.Barcode != "" {
		entry, err := m.lookupCatalog(sub.Barcode)
		if err != nil {
			return models.HelpRequest{}, err
		}
		if entry != nil {
			req.ProductInfo = &models.ProductInfo{
				Brand:       entry.Brand,
				Description: entry.Description,
				Price:       entry.Price,
				Inventory:   entry.Inventory,
			}
		}
	}

	req.Selfie = m.saveSelfie(req.ID, sub.PhotoName, sub.Photo)

	updated, err := m.store.HelpRequests.Update(func(reqs []models.HelpRequest) ([]models.HelpRequest, error) {
		return append(reqs, req), nil
	})
	if err != nil {
		m.reclaimSelfie(req.Selfie)
		return models.HelpRequest{}, err
	}

	m.notifier.Broadcast(EventHelpUpdated, snapshotPayload(updated))
	return req, nil
}

// DeleteTryOn removes a try-on request and reclaims its selfie. Deleting an
// id that is not present is a no-op, but the current snapshot is broadcast
// either way so dashboards converge after spurious calls.
func (m *Manager) DeleteTryOn(id string) error {
	updated, err := m.store.TryOns.Update(func(reqs []models.TryOnRequest) ([]models.TryOnRequest, error) {
		kept := make([]models.TryOnRequest, 0, len(reqs))
		for _, r := range reqs {
			if r.ID == id {
				m.reclaimSelfie(r.Selfie)
				continue
			}
			kept = append(kept, r)
		}
		return kept, nil
	})
	if err != nil {
		return err
	}

	m.notifier.Broadcast(EventTryOnsUpdated, snapshotPayload(updated))
	return nil
}

// DeleteHelp removes a help request; same semantics as DeleteTryOn.
func (m *Manager) DeleteHelp(id string) error {
	updated, err := m.store.HelpRequests.Update(func(reqs []models.HelpRequest) ([]models.HelpRequest, error) {
		kept := make([]models.HelpRequest, 0, len(reqs))
		for _, r := range reqs {
			if r.ID == id {
				m.reclaimSelfie(r.Selfie)
				continue
			}
			kept = append(kept, r)
		}
		return kept, nil
	})
	if err != nil {
		return err
	}

	m.notifier.Broadcast(EventHelpUpdated, snapshotPayload(updated))
	return nil
}

// ListTryOns returns the persisted try-on stream as-is. Expired records that
// the sweep has not reached yet may still appear; that staleness window is
// bounded by the sweep interval.
func (m *Manager) ListTryOns() ([]models.TryOnRequest, error) {
	return m.store.TryOns.Load()
}

// ListHelp returns the persisted help stream as-is.
func (m *Manager) ListHelp() ([]models.HelpRequest, error) {
	return m.store.HelpRequests.Load()
}

// Sweep evicts expired records from both streams. A stream is only
// rewritten and rebroadcast when it actually lost records this cycle.
func (m *Manager) Sweep() {
	m.sweepTryOns()
	m.sweepHelp()
}

func (m *Manager) sweepTryOns() {
	now := m.now()
	expired := 0

	updated, err := m.store.TryOns.Update(func(reqs []models.TryOnRequest) ([]models.TryOnRequest, error) {
		live := make([]models.TryOnRequest, 0, len(reqs))
		for _, r := range reqs {
			if r.IsLive(now) {
				live = append(live, r)
				continue
			}
			m.reclaimSelfie(r.Selfie)
			expired++
		}
		if expired == 0 {
			return nil, store.ErrNoChange
		}
		return live, nil
	})
	if err != nil {
		log.Printf("lifecycle: try-on sweep failed: %v", err)
		return
	}
	if expired == 0 {
		return
	}

	log.Printf("lifecycle: expired %d try-on request(s)", expired)
	m.notifier.Broadcast(EventTryOnsUpdated, snapshotPayload(updated))
}

func (m *Manager) sweepHelp() {
	now := m.now()
	expired := 0

	updated, err := m.store.HelpRequests.Update(func(reqs []models.HelpRequest) ([]models.HelpRequest, error) {
		live := make([]models.HelpRequest, 0, len(reqs))
		for _, r := range reqs {
			if r.IsLive(now) {
				live = append(live, r)
				continue
			}
			m.reclaimSelfie(r.Selfie)
			expired++
		}
		if expired == 0 {
			return nil, store.ErrNoChange
		}
		return live, nil
	})
	if err != nil {
		log.Printf("lifecycle: help sweep failed: %v", err)
		return
	}
	if expired == 0 {
		return
	}

	log.Printf("lifecycle: expired %d help request(s)", expired)
	m.notifier.Broadcast(EventHelpUpdated, snapshotPayload(updated))
}

func (m *Manager) lookupCatalog(barcode string) (*models.CatalogProduct, error) {
	entries, err := m.store.Catalog.Load()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Barcode == barcode {
			return &entries[i], nil
		}
	}
	return nil, nil
}

// saveSelfie normalizes and stores an uploaded photo, returning the stored
// filename or "" when there is no usable photo. A bad upload never blocks
// the submission.
func (m *Manager) saveSelfie(id, photoName string, photo []byte) string {
	if photoName == "" || len(photo) == 0 {
		return ""
	}
	if !selfie.Allowed(photoName, m.opts.AllowedExtensions) {
		log.Printf("lifecycle: rejected selfie upload %q: extension not allowed", photoName)
		return ""
	}

	filename := id + "." + selfie.Ext(photoName)
	path := filepath.Join(m.opts.UploadDir, filename)
	if err := selfie.SaveNormalized(path, photo, m.opts.SelfieSize, m.opts.JPEGQuality); err != nil {
		log.Printf("lifecycle: failed to store selfie %s: %v", filename, err)
		return ""
	}
	return filename
}

// reclaimSelfie deletes a request's stored selfie. Best-effort: a failure is
// logged and never aborts the surrounding operation.
func (m *Manager) reclaimSelfie(filename string) {
	if filename == "" {
		return
	}
	path := filepath.Join(m.opts.UploadDir, filename)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("lifecycle: failed to delete selfie %s: %v", filename, err)
	}
}

func snapshotPayload[T any](records []T) map[string]any {
	if records == nil {
		records = []T{}
	}
	return map[string]any{"requests": records}
}
