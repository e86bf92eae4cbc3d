package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"kioskpos/internal/cache"
	"kioskpos/internal/catalog"
	"kioskpos/internal/domain"
	applog "kioskpos/internal/log"
	"kioskpos/internal/pricing"
)

// CatalogSource is the read side of the REST backend.
type CatalogSource interface {
	Products() ([]domain.Product, error)
	Categories() ([]domain.Category, error)
}

// CatalogView is an immutable, fully derived catalog. Handlers may hold
// one across a request without locking.
type CatalogView struct {
	Generation uint64
	FetchedAt  time.Time
	Tree       *catalog.Tree
	Products   []domain.Product

	byID      map[string]int
	resolvers map[string]pricing.Resolver
}

func newView(gen uint64, s cache.Snapshot) *CatalogView {
	v := &CatalogView{
		Generation: gen,
		FetchedAt:  s.FetchedAt,
		Tree:       catalog.NewTree(s.Categories),
		Products:   s.Products,
		byID:       make(map[string]int, len(s.Products)),
		resolvers:  make(map[string]pricing.Resolver, len(s.Products)),
	}
	for i, p := range s.Products {
		if _, dup := v.byID[p.ID]; dup {
			continue
		}
		v.byID[p.ID] = i
		v.resolvers[p.ID] = pricing.NewResolver(p)
	}
	return v
}

func (v *CatalogView) Product(id string) (domain.Product, bool) {
	i, ok := v.byID[id]
	if !ok {
		return domain.Product{}, false
	}
	return v.Products[i], true
}

// Resolver returns the pricing resolver built for product id at load time.
func (v *CatalogView) Resolver(id string) (pricing.Resolver, bool) {
	r, ok := v.resolvers[id]
	return r, ok
}

func (v *CatalogView) Visible(st catalog.FilterState) []domain.Product {
	return st.Apply(v.Products)
}

// CatalogService owns the current catalog view. Every fetch is stamped with
// a generation; a fetch that completes after a newer one is discarded.
type CatalogService struct {
	Src   CatalogSource
	Store cache.Store

	issued  atomic.Uint64
	mu      sync.RWMutex
	view    *CatalogView
	applied uint64
	dirty   bool // set by Invalidate until a newer fetch is applied
}

func NewCatalogService(src CatalogSource, store cache.Store) *CatalogService {
	if store == nil {
		store = cache.NewMemory(30 * time.Second)
	}
	return &CatalogService{Src: src, Store: store}
}

// Current returns the applied view, reloading it when the shared snapshot
// expired or was replaced by another instance. While the backend is down
// the last applied view keeps being served.
func (s *CatalogService) Current(ctx context.Context) (*CatalogView, error) {
	snap, hit, err := s.Store.Get(ctx)
	if err != nil {
		applog.Error(nil, "catalog.cache.get.fail", err, nil)
	}
	s.mu.RLock()
	cur, dirty := s.view, s.dirty
	s.mu.RUnlock()

	if !dirty && hit && cur != nil && snap.FetchedAt.Equal(cur.FetchedAt) {
		return cur, nil
	}
	if !dirty && hit {
		v, _ := s.apply(newView(s.issued.Add(1), snap))
		return v, nil
	}
	v, err := s.Refresh(ctx)
	if err != nil && cur != nil {
		applog.Error(nil, "catalog.refresh.fail", err, map[string]any{"serving_generation": cur.Generation})
		return cur, nil
	}
	return v, err
}

// Refresh fetches products and categories concurrently and applies the
// result once both have arrived. On failure the previous view stays.
func (s *CatalogService) Refresh(ctx context.Context) (*CatalogView, error) {
	gen := s.issued.Add(1)

	var (
		wg       sync.WaitGroup
		products []domain.Product
		cats     []domain.Category
		pErr     error
		cErr     error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		products, pErr = s.Src.Products()
	}()
	go func() {
		defer wg.Done()
		cats, cErr = s.Src.Categories()
	}()
	wg.Wait()
	if pErr != nil {
		return nil, pErr
	}
	if cErr != nil {
		return nil, cErr
	}

	snap := cache.Snapshot{Products: products, Categories: cats, FetchedAt: time.Now()}
	v, applied := s.apply(newView(gen, snap))
	if applied {
		if err := s.Store.Set(ctx, snap); err != nil {
			applog.Error(nil, "catalog.cache.set.fail", err, nil)
		}
		applog.Info(nil, "catalog.refresh", map[string]any{
			"generation": gen, "products": len(products), "categories": len(cats),
		})
	}
	return v, nil
}

// apply installs v unless a newer generation is already in place, and
// returns whichever view the caller should use.
func (s *CatalogService) apply(v *CatalogView) (*CatalogView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.Generation < s.applied {
		applog.Info(nil, "catalog.refresh.stale", map[string]any{
			"generation": v.Generation, "current": s.applied,
		})
		if s.view != nil {
			return s.view, false
		}
		return v, false
	}
	s.view, s.applied, s.dirty = v, v.Generation, false
	return v, true
}

// Invalidate forces the next Current to refetch and discards fetches that
// were already in flight. Admin mutations call it. The old view stays as
// the fallback until the refetch succeeds.
func (s *CatalogService) Invalidate(ctx context.Context) {
	if err := s.Store.Invalidate(ctx); err != nil {
		applog.Error(nil, "catalog.cache.invalidate.fail", err, nil)
	}
	s.mu.Lock()
	s.dirty = true
	s.applied = s.issued.Add(1)
	s.mu.Unlock()
}
