package sim

// CartID packs a 32-bit slot index in the lower bits and a 32-bit generation
// in the upper bits. Destroying a cart bumps the generation so stale ids stop
// resolving, which is how the movement cursor learns a cart is gone.
type CartID uint64

func newCartID(index, generation uint32) CartID {
	return CartID(uint64(generation)<<32 | uint64(index))
}

func (id CartID) Index() uint32      { return uint32(id) }
func (id CartID) Generation() uint32 { return uint32(id >> 32) }

// CartPool allocates generational cart ids with a free list.
type CartPool struct {
	generations []uint32
	freeList    []uint32
}

func NewCartPool() *CartPool {
	return &CartPool{
		generations: make([]uint32, 0, 64),
		freeList:    make([]uint32, 0, 16),
	}
}

func (p *CartPool) Create() CartID {
	if n := len(p.freeList); n > 0 {
		idx := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return newCartID(idx, p.generations[idx])
	}
	idx := uint32(len(p.generations))
	p.generations = append(p.generations, 0)
	return newCartID(idx, 0)
}

func (p *CartPool) Alive(id CartID) bool {
	idx := id.Index()
	if int(idx) >= len(p.generations) {
		return false
	}
	return p.generations[idx] == id.Generation()
}

func (p *CartPool) Destroy(id CartID) {
	if !p.Alive(id) {
		return // stale reference
	}
	idx := id.Index()
	p.generations[idx]++
	p.freeList = append(p.freeList, idx)
}
