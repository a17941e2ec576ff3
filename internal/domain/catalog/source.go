package catalog

import "context"

// Source supplies candidate products for listing. Implementations range from
// a static verified list to a paginated supplier API; large catalogs are
// consumed incrementally, so callers must not assume all results fit in memory.
type Source interface {
	// Products returns an iterator over the source's products.
	Products(ctx context.Context) (Iterator, error)
}

// Iterator walks a product sequence one item at a time.
type Iterator interface {
	// Next returns the next product. ok is false once the sequence is exhausted.
	Next(ctx context.Context) (p Product, ok bool, err error)

	// Close releases any resources held by the iterator.
	Close() error
}

// SliceIterator adapts an in-memory slice to the Iterator contract.
type SliceIterator struct {
	products []Product
	pos      int
}

// NewSliceIterator creates an iterator over the given products
func NewSliceIterator(products []Product) *SliceIterator {
	return &SliceIterator{products: products}
}

// Next implements Iterator
func (it *SliceIterator) Next(ctx context.Context) (Product, bool, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, false, err
	}
	if it.pos >= len(it.products) {
		return Product{}, false, nil
	}
	p := it.products[it.pos]
	it.pos++
	return p, true, nil
}

// Close implements Iterator
func (it *SliceIterator) Close() error { return nil }

// Collect drains an iterator into a slice. Intended for small, finite sources.
func Collect(ctx context.Context, it Iterator) ([]Product, error) {
	defer func() { _ = it.Close() }()
	var out []Product
	for {
		p, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, p)
	}
}
