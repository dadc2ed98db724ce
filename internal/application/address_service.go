package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/galactic-postbox/internal/domain/entity"
	repo "github.com/oksasatya/galactic-postbox/internal/domain/repository"
	"github.com/oksasatya/galactic-postbox/pkg/helpers"
)

const (
	defaultSearchSize = 10
	maxSearchSize     = 50
)

// AddressIndexMapping is the Elasticsearch mapping of the directory index.
const AddressIndexMapping = `{
  "mappings": {
    "properties": {
      "address":   {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "movie":     {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "username":  {"type": "keyword"},
      "isCustom":  {"type": "boolean"},
      "createdAt": {"type": "date"}
    }
  }
}`

type addressDoc struct {
	Address   string `json:"address"`
	Movie     string `json:"movie"`
	Username  string `json:"username"`
	IsCustom  bool   `json:"isCustom"`
	CreatedAt string `json:"createdAt"`
}

// AddressService serves the address catalog and address search.
type AddressService struct {
	Addresses repo.AddressRepository
	ES        *elasticsearch.Client // nil: search falls back to the store
	Index     string
	Logger    *logrus.Logger
}

// NewAddressService builds an AddressService. A nil es searches the store directly.
func NewAddressService(addresses repo.AddressRepository, es *elasticsearch.Client, index string, logger *logrus.Logger) *AddressService {
	if logger == nil {
		logger = helpers.NewNopLogger()
	}
	return &AddressService{Addresses: addresses, ES: es, Index: index, Logger: logger}
}

func (s *AddressService) ListCatalog(ctx context.Context) ([]entity.CatalogEntry, error) {
	return s.Addresses.ListCatalog(ctx)
}

// IndexUser adds the user's address to the directory index.
func (s *AddressService) IndexUser(ctx context.Context, u *entity.User) error {
	if s.ES == nil || s.Index == "" {
		return nil
	}
	b, err := json.Marshal(addressDoc{
		Address:   u.Address.Address,
		Movie:     u.Address.Movie,
		Username:  u.Username,
		IsCustom:  u.Address.IsCustom,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: s.Index, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index: %s", res.Status())
	}
	return nil
}

// Search finds registered addresses by address or movie. Elasticsearch is
// used when configured; on any search failure the store is queried instead.
func (s *AddressService) Search(ctx context.Context, q string, size int) ([]entity.DirectoryEntry, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fieldError("q", "q is required")
	}
	if size <= 0 || size > maxSearchSize {
		size = defaultSearchSize
	}
	if s.ES != nil && s.Index != "" {
		out, err := s.searchES(ctx, q, size)
		if err == nil {
			return out, nil
		}
		s.Logger.WithError(err).Warn("es search failed; using store")
	}
	return s.Addresses.SearchRegistered(ctx, q, size)
}

func (s *AddressService) searchES(ctx context.Context, q string, size int) ([]entity.DirectoryEntry, error) {
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"address^2", "movie"},
				"fuzziness": "AUTO",
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.Index), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source addressDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]entity.DirectoryEntry, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, entity.DirectoryEntry{
			Address:  h.Source.Address,
			Movie:    h.Source.Movie,
			Username: h.Source.Username,
			IsCustom: h.Source.IsCustom,
		})
	}
	return out, nil
}
