package commerce

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/deskhq/desk-backend/internal/logging"
	"github.com/deskhq/desk-backend/internal/notify"
	"github.com/deskhq/desk-backend/internal/store"
)

var monthOrder = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

type Service struct {
	client   store.Client
	platform Platform
	tracker  *Tracker
	now      func() time.Time
}

func NewService(client store.Client, platform Platform, tracker *Tracker) *Service {
	return &Service{client: client, platform: platform, tracker: tracker, now: time.Now}
}

// Connect links a store for the user and seeds its sample data.
func (s *Service) Connect(ctx context.Context, userID, shopURL string, n notify.Notifier) (StoreConnection, error) {
	if n == nil {
		n = notify.Discard
	}
	if userID == "" {
		n.Notify(ctx, notify.Failure("Authentication required", "Please sign in to connect your store."))
		return StoreConnection{}, store.ErrAuthRequired
	}
	host, err := NormalizeShopURL(shopURL)
	if err != nil {
		return StoreConnection{}, err
	}
	if _, err := s.connection(ctx, userID); err == nil {
		return StoreConnection{}, ErrAlreadyConnected
	} else if !errors.Is(err, ErrNotConnected) {
		return StoreConnection{}, s.connectFailed(ctx, n, err)
	}

	n.Notify(ctx, notify.Success("Connecting to your store", "Processing your request..."))

	token, err := s.platform.Authorize(ctx, host)
	if err != nil {
		return StoreConnection{}, s.connectFailed(ctx, n, err)
	}
	rows, err := s.client.Insert(ctx, store.TableStoreConnections, userID, store.Row{
		"shop_url":     host,
		"access_token": token,
		"last_sync":    s.now().UTC(),
	})
	if err != nil {
		return StoreConnection{}, s.connectFailed(ctx, n, err)
	}
	conn := connectionFromRow(rows[0])

	// the connection stands even when seeding fails
	if data, err := s.platform.Fetch(ctx, host, token); err != nil {
		logging.FromContext(ctx).Error("commerce.seed", err)
	} else if err := s.replaceData(ctx, userID, data); err != nil {
		logging.FromContext(ctx).Error("commerce.seed", err)
	}

	if err := s.tracker.MarkConnected(ctx, userID); err != nil {
		logging.FromContext(ctx).Warnf("commerce.connect", "track connected user: %v", err)
	}
	s.publish(ctx, Event{Type: EventConnected, UserID: userID, At: s.now().UTC(), LastSync: conn.LastSync})

	n.Notify(ctx, notify.Success("Store connected", fmt.Sprintf("Successfully connected to %s", host)))
	return conn, nil
}

func (s *Service) connectFailed(ctx context.Context, n notify.Notifier, err error) error {
	logging.FromContext(ctx).Error("commerce.connect", err)
	n.Notify(ctx, notify.Failure("Connection Error", "Could not connect to your store. Please try again later."))
	return err
}

// Import refreshes the store data. Only one import per user runs at a time.
func (s *Service) Import(ctx context.Context, userID string, n notify.Notifier) (StoreConnection, error) {
	if n == nil {
		n = notify.Discard
	}
	if userID == "" {
		return StoreConnection{}, store.ErrAuthRequired
	}
	conn, err := s.connection(ctx, userID)
	if err != nil {
		return StoreConnection{}, err
	}

	token, ok, err := s.tracker.AcquireImport(ctx, userID)
	if err != nil {
		return StoreConnection{}, err
	}
	if !ok {
		return StoreConnection{}, ErrImportInProgress
	}
	defer func() {
		// release on a fresh context so a cancelled request still frees the lock
		if err := s.tracker.ReleaseImport(context.WithoutCancel(ctx), userID, token); err != nil {
			logging.FromContext(ctx).Error("commerce.import", err)
		}
	}()

	s.publish(ctx, Event{Type: EventImportStarted, UserID: userID, At: s.now().UTC()})

	conn, err = s.runImport(ctx, userID, conn)
	if err != nil {
		logging.FromContext(ctx).Error("commerce.import", err)
		s.publish(ctx, Event{Type: EventImportFailed, UserID: userID, At: s.now().UTC(), Error: err.Error()})
		n.Notify(ctx, notify.Failure("Import Error", "Could not import data from your store. Please try again later."))
		return StoreConnection{}, err
	}

	s.publish(ctx, Event{Type: EventImportFinished, UserID: userID, At: s.now().UTC(), LastSync: conn.LastSync})
	n.Notify(ctx, notify.Success("Data imported successfully", "Your store data has been updated."))
	return conn, nil
}

func (s *Service) runImport(ctx context.Context, userID string, conn StoreConnection) (StoreConnection, error) {
	data, err := s.platform.Fetch(ctx, conn.ShopURL, conn.AccessToken)
	if err != nil {
		return StoreConnection{}, err
	}
	if err := s.replaceData(ctx, userID, data); err != nil {
		return StoreConnection{}, err
	}
	rows, err := s.client.Update(ctx, store.TableStoreConnections, userID, store.Query{ID: conn.ID}, store.Row{
		"last_sync": s.now().UTC(),
	})
	if err != nil {
		return StoreConnection{}, err
	}
	if len(rows) == 0 {
		return StoreConnection{}, ErrNotConnected
	}
	return connectionFromRow(rows[0]), nil
}

// Disconnect removes the connection and its imported data.
func (s *Service) Disconnect(ctx context.Context, userID string) error {
	if userID == "" {
		return store.ErrAuthRequired
	}
	n, err := s.client.Delete(ctx, store.TableStoreConnections, userID, store.Query{})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotConnected
	}
	if err := s.clearData(ctx, userID); err != nil {
		return err
	}
	return s.tracker.MarkDisconnected(ctx, userID)
}

// Status reports the connection and whether an import is running.
func (s *Service) Status(ctx context.Context, userID string) (Status, error) {
	if userID == "" {
		return Status{}, store.ErrAuthRequired
	}
	conn, err := s.connection(ctx, userID)
	if errors.Is(err, ErrNotConnected) {
		return Status{Connected: false}, nil
	}
	if err != nil {
		return Status{}, err
	}
	importing, err := s.tracker.Importing(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	return Status{Connected: true, Store: &conn, Importing: importing, LastImported: conn.LastSync}, nil
}

// Sales returns the monthly sales series in calendar order.
func (s *Service) Sales(ctx context.Context, userID string) ([]SalesPoint, error) {
	rows, err := s.client.Select(ctx, store.TableStoreSales, userID, store.Query{OrderBy: store.ColCreatedAt})
	if err != nil {
		return nil, err
	}
	out := make([]SalesPoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, SalesPoint{Month: r.String("month"), Sales: r.Float("sales")})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return monthOrder[strings.ToLower(out[i].Month)] < monthOrder[strings.ToLower(out[j].Month)]
	})
	return out, nil
}

// Products returns the product breakdown, largest first.
func (s *Service) Products(ctx context.Context, userID string) ([]ProductShare, error) {
	rows, err := s.client.Select(ctx, store.TableStoreProducts, userID, store.Query{OrderBy: store.ColCreatedAt})
	if err != nil {
		return nil, err
	}
	out := make([]ProductShare, 0, len(rows))
	for _, r := range rows {
		out = append(out, ProductShare{Name: r.String("name"), Value: r.Float("value")})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out, nil
}

// ImportAll re-imports every connected store whose last import is older than
// minAge. It returns how many imports succeeded.
func (s *Service) ImportAll(ctx context.Context, minAge time.Duration) (int, error) {
	users, err := s.tracker.ConnectedUsers(ctx)
	if err != nil {
		return 0, err
	}
	var errs []error
	done := 0
	for _, uid := range users {
		if minAge > 0 {
			last, err := s.tracker.LastImport(ctx, uid)
			if err == nil && last != nil && s.now().Sub(*last) < minAge {
				continue
			}
		}
		if _, err := s.Import(logging.WithUserID(ctx, uid), uid, nil); err != nil {
			if errors.Is(err, ErrNotConnected) {
				_ = s.tracker.MarkDisconnected(ctx, uid)
			}
			if errors.Is(err, ErrNotConnected) || errors.Is(err, ErrImportInProgress) {
				continue
			}
			errs = append(errs, fmt.Errorf("user %s: %w", uid, err))
			continue
		}
		done++
	}
	return done, errors.Join(errs...)
}

func (s *Service) connection(ctx context.Context, userID string) (StoreConnection, error) {
	row, err := s.client.SelectOne(ctx, store.TableStoreConnections, userID, store.Query{})
	if errors.Is(err, store.ErrNoRows) {
		return StoreConnection{}, ErrNotConnected
	}
	if err != nil {
		return StoreConnection{}, err
	}
	return connectionFromRow(row), nil
}

func (s *Service) replaceData(ctx context.Context, userID string, data Dataset) error {
	if err := s.clearData(ctx, userID); err != nil {
		return err
	}
	if len(data.Sales) > 0 {
		rows := make([]store.Row, 0, len(data.Sales))
		for _, p := range data.Sales {
			rows = append(rows, store.Row{"month": p.Month, "sales": p.Sales})
		}
		if _, err := s.client.Insert(ctx, store.TableStoreSales, userID, rows...); err != nil {
			return fmt.Errorf("insert sales: %w", err)
		}
	}
	if len(data.Products) > 0 {
		rows := make([]store.Row, 0, len(data.Products))
		for _, p := range data.Products {
			rows = append(rows, store.Row{"name": p.Name, "value": p.Value})
		}
		if _, err := s.client.Insert(ctx, store.TableStoreProducts, userID, rows...); err != nil {
			return fmt.Errorf("insert products: %w", err)
		}
	}
	return nil
}

func (s *Service) clearData(ctx context.Context, userID string) error {
	if _, err := s.client.Delete(ctx, store.TableStoreSales, userID, store.Query{}); err != nil {
		return fmt.Errorf("clear sales: %w", err)
	}
	if _, err := s.client.Delete(ctx, store.TableStoreProducts, userID, store.Query{}); err != nil {
		return fmt.Errorf("clear products: %w", err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, ev Event) {
	if err := s.tracker.Publish(ctx, ev); err != nil {
		logging.FromContext(ctx).Warnf("commerce.publish", "%v", err)
	}
}

// NormalizeShopURL accepts "shop.example.com" or a full URL and returns the lower-case host.
func NormalizeShopURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidShopURL
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" || !strings.Contains(u.Hostname(), ".") {
		return "", ErrInvalidShopURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidShopURL
	}
	return strings.ToLower(u.Hostname()), nil
}

func connectionFromRow(row store.Row) StoreConnection {
	return StoreConnection{
		ID:          row.String("id"),
		ShopURL:     row.String("shop_url"),
		AccessToken: row.String("access_token"),
		LastSync:    row.OptTime("last_sync"),
		ConnectedAt: row.Time("created_at"),
	}
}
