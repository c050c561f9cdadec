package retention

import (
	"sync"
	"testing"

	"github.com/cartload/server/internal/region"
	"github.com/stretchr/testify/require"
)

func TestUpsertExtendMergesToMax(t *testing.T) {
	tbl := NewTable()
	r := region.ID{X: 3, Z: -2}

	_, existed := tbl.UpsertExtend(r, 100)
	require.False(t, existed)

	prev, existed := tbl.UpsertExtend(r, 80)
	require.True(t, existed)
	require.Equal(t, int64(100), prev.ExpiryTick)

	rec, ok := tbl.Get(r)
	require.True(t, ok)
	require.Equal(t, int64(100), rec.ExpiryTick, "lower expiry must not shorten retention")

	_, existed = tbl.UpsertExtend(r, 150)
	require.True(t, existed)
	rec, _ = tbl.Get(r)
	require.Equal(t, int64(150), rec.ExpiryTick)
}

func TestRemoveReturnsPrior(t *testing.T) {
	tbl := NewTable()
	r := region.ID{X: 1, Z: 1}
	tbl.UpsertExtend(r, 10)

	rec, ok := tbl.Remove(r)
	require.True(t, ok)
	require.Equal(t, int64(10), rec.ExpiryTick)

	_, ok = tbl.Remove(r)
	require.False(t, ok)
	require.Equal(t, 0, tbl.Len())
}

func TestSnapshotOrderedAndDetached(t *testing.T) {
	tbl := NewTable()
	tbl.UpsertExtend(region.ID{X: 2, Z: 0}, 5)
	tbl.UpsertExtend(region.ID{X: -1, Z: 4}, 5)
	tbl.UpsertExtend(region.ID{X: -1, Z: -4}, 5)

	snap := tbl.Snapshot()
	require.Equal(t, []region.ID{{X: -1, Z: -4}, {X: -1, Z: 4}, {X: 2, Z: 0}},
		[]region.ID{snap[0].Region, snap[1].Region, snap[2].Region})

	snap[0].ExpiryTick = 999
	rec, _ := tbl.Get(region.ID{X: -1, Z: -4})
	require.Equal(t, int64(5), rec.ExpiryTick)
}

func TestExpiredIsStrict(t *testing.T) {
	tbl := NewTable()
	tbl.UpsertExtend(region.ID{X: 0, Z: 0}, 10)
	tbl.UpsertExtend(region.ID{X: 1, Z: 0}, 9)

	got := tbl.Expired(10)
	require.Len(t, got, 1)
	require.Equal(t, region.ID{X: 1, Z: 0}, got[0].Region)
}

func TestTableConcurrentReaders(t *testing.T) {
	tbl := NewTable()
	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					for _, rec := range tbl.Snapshot() {
						if rec.ExpiryTick < 0 {
							t.Errorf("unexpected record %+v", rec)
						}
					}
				}
			}
		}()
	}
	for i := int32(0); i < 500; i++ {
		r := region.ID{X: i % 17, Z: i % 5}
		tbl.UpsertExtend(r, int64(i))
		if i%3 == 0 {
			tbl.Remove(r)
		}
	}
	close(stop)
	wg.Wait()
}
