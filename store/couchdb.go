package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	kivik "github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb"

	"altimpact.dev/item"
)

// docType values stamped into "@type" so a single database can host all
// three document families and still be queried per-type (mirrors this
// codebase's generic-document @type convention).
const (
	docTypeItem       = "Item"
	docTypeCollection = "Collection"
	docTypeUser       = "User"
)

// itemDoc is Item's on-the-wire CouchDB shape: adds the "_id"/"_rev"/"@type"
// triple the generic document helpers key off, while the domain type stays
// free of storage concerns.
type itemDoc struct {
	ID      string `json:"_id"`
	Rev     string `json:"_rev,omitempty"`
	Type    string `json:"@type"`
	item.Item
}

type collectionDoc struct {
	ID   string `json:"_id"`
	Rev  string `json:"_rev,omitempty"`
	Type string `json:"@type"`
	item.Collection
}

type userDoc struct {
	ID   string `json:"_id"`
	Rev  string `json:"_rev,omitempty"`
	Type string `json:"@type"`
	item.User
}

// Config configures a CouchDB-backed Store.
type Config struct {
	URL             string
	Database        string
	Username        string
	Password        string
	Timeout         time.Duration
	CreateIfMissing bool
}

// CouchDB is a Store backed by a single CouchDB database holding items,
// collections, and users side by side, distinguished by "@type", following
// this codebase's existing document-store architecture.
type CouchDB struct {
	client *kivik.Client
	db     *kivik.DB
}

// NewCouchDB dials cfg.URL and opens (optionally creating) cfg.Database.
func NewCouchDB(ctx context.Context, cfg Config) (*CouchDB, error) {
	connectionURL := cfg.URL
	if cfg.Username != "" && cfg.Password != "" && !strings.Contains(connectionURL, "@") {
		parts := strings.SplitN(connectionURL, "://", 2)
		if len(parts) == 2 {
			connectionURL = fmt.Sprintf("%s://%s:%s@%s", parts[0], cfg.Username, cfg.Password, parts[1])
		}
	}

	client, err := kivik.New("couch", connectionURL)
	if err != nil {
		return nil, fmt.Errorf("store: connect to couchdb: %w", err)
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	exists, err := client.DBExists(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("store: check database exists: %w", err)
	}
	if !exists {
		if !cfg.CreateIfMissing {
			return nil, fmt.Errorf("store: database %q does not exist", cfg.Database)
		}
		if err := client.CreateDB(ctx, cfg.Database); err != nil {
			return nil, fmt.Errorf("store: create database: %w", err)
		}
	}

	return &CouchDB{client: client, db: client.DB(cfg.Database)}, nil
}

// Close releases the underlying connection.
func (c *CouchDB) Close() error { return c.client.Close() }

func notFound(err error) bool { return kivik.HTTPStatus(err) == 404 }

func itemDocID(tiid string) string { return "item:" + tiid }

func (c *CouchDB) CreateItem(ctx context.Context, it *item.Item) error {
	if _, ok, err := c.getItemDoc(ctx, it.TIID); err != nil {
		return err
	} else if ok {
		return ErrConflict
	}
	return c.putItem(ctx, it, "")
}

func (c *CouchDB) GetItem(ctx context.Context, tiid string) (*item.Item, error) {
	doc, ok, err := c.getItemDoc(ctx, tiid)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	out := doc.Item
	out.Rev = doc.Rev
	return &out, nil
}

func (c *CouchDB) SaveItem(ctx context.Context, it *item.Item) error {
	return c.putItem(ctx, it, it.Rev)
}

func (c *CouchDB) putItem(ctx context.Context, it *item.Item, rev string) error {
	doc := itemDoc{ID: itemDocID(it.TIID), Rev: rev, Type: docTypeItem, Item: *it}
	newRev, err := c.db.Put(ctx, doc.ID, doc)
	if err != nil {
		if kivik.HTTPStatus(err) == 409 {
			return ErrConflict
		}
		return fmt.Errorf("store: save item %s: %w", it.TIID, err)
	}
	it.Rev = newRev
	return nil
}

func (c *CouchDB) getItemDoc(ctx context.Context, tiid string) (*itemDoc, bool, error) {
	row := c.db.Get(ctx, itemDocID(tiid))
	if row.Err() != nil {
		if notFound(row.Err()) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("store: get item %s: %w", tiid, row.Err())
	}
	var doc itemDoc
	if err := row.ScanDoc(&doc); err != nil {
		return nil, false, fmt.Errorf("store: decode item %s: %w", tiid, err)
	}
	return &doc, true, nil
}

// FindTIIDByAlias scans @type=Item documents for one carrying (namespace,
// id). A production deployment would back this with a Mango index on
// aliases.<namespace>; the linear scan here matches the generic
// GetAllDocuments fallback this is grounded on.
func (c *CouchDB) FindTIIDByAlias(ctx context.Context, namespace, id string) (string, bool, error) {
	rows := c.db.AllDocs(ctx, kivik.Param("include_docs", true))
	defer rows.Close()

	for rows.Next() {
		var doc itemDoc
		if err := rows.ScanDoc(&doc); err != nil {
			continue
		}
		if doc.Type != docTypeItem {
			continue
		}
		for _, v := range doc.Aliases[namespace] {
			if v == id {
				return doc.TIID, true, nil
			}
		}
	}
	if err := rows.Err(); err != nil {
		return "", false, fmt.Errorf("store: scan for alias: %w", err)
	}
	return "", false, nil
}

func (c *CouchDB) ItemsNeedingAliases(ctx context.Context) ([]string, error) {
	rows := c.db.AllDocs(ctx, kivik.Param("include_docs", true))
	defer rows.Close()

	var out []string
	for rows.Next() {
		var doc itemDoc
		if err := rows.ScanDoc(&doc); err != nil {
			continue
		}
		if doc.Type == docTypeItem && doc.NeedsAliases != nil {
			out = append(out, doc.TIID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan for pending aliases: %w", err)
	}
	return out, nil
}

func collectionDocID(cid string) string { return "collection:" + cid }

func (c *CouchDB) CreateCollection(ctx context.Context, col *item.Collection) error {
	row := c.db.Get(ctx, collectionDocID(col.CID))
	if row.Err() == nil {
		return ErrConflict
	} else if !notFound(row.Err()) {
		return fmt.Errorf("store: check collection %s: %w", col.CID, row.Err())
	}
	return c.putCollection(ctx, col, "")
}

func (c *CouchDB) GetCollection(ctx context.Context, cid string) (*item.Collection, error) {
	row := c.db.Get(ctx, collectionDocID(cid))
	if row.Err() != nil {
		if notFound(row.Err()) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get collection %s: %w", cid, row.Err())
	}
	var doc collectionDoc
	if err := row.ScanDoc(&doc); err != nil {
		return nil, fmt.Errorf("store: decode collection %s: %w", cid, err)
	}
	out := doc.Collection
	out.Rev = doc.Rev
	return &out, nil
}

func (c *CouchDB) SaveCollection(ctx context.Context, col *item.Collection) error {
	return c.putCollection(ctx, col, col.Rev)
}

func (c *CouchDB) putCollection(ctx context.Context, col *item.Collection, rev string) error {
	doc := collectionDoc{ID: collectionDocID(col.CID), Rev: rev, Type: docTypeCollection, Collection: *col}
	newRev, err := c.db.Put(ctx, doc.ID, doc)
	if err != nil {
		if kivik.HTTPStatus(err) == 409 {
			return ErrConflict
		}
		return fmt.Errorf("store: save collection %s: %w", col.CID, err)
	}
	col.Rev = newRev
	return nil
}

func userDocID(apiKey string) string { return "user:" + apiKey }

func (c *CouchDB) GetUser(ctx context.Context, apiKey string) (*item.User, error) {
	row := c.db.Get(ctx, userDocID(apiKey))
	if row.Err() != nil {
		if notFound(row.Err()) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get user: %w", row.Err())
	}
	var doc userDoc
	if err := row.ScanDoc(&doc); err != nil {
		return nil, fmt.Errorf("store: decode user: %w", err)
	}
	out := doc.User
	out.Rev = doc.Rev
	return &out, nil
}

func (c *CouchDB) SaveUser(ctx context.Context, u *item.User) error {
	doc := userDoc{ID: userDocID(u.APIKey), Rev: u.Rev, Type: docTypeUser, User: *u}
	newRev, err := c.db.Put(ctx, doc.ID, doc)
	if err != nil {
		if kivik.HTTPStatus(err) == 409 {
			return ErrConflict
		}
		return fmt.Errorf("store: save user: %w", err)
	}
	u.Rev = newRev
	return nil
}
