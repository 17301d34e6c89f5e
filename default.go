package typepool

var (
	// commonPool holds the process-wide pool, created lazily on first
	// access.
	commonPool *Pool
)

// CommonPool returns the process-wide pool, creating a default one on
// first access. There is no teardown: the common pool lives for the
// remainder of the process unless replaced with SetCommonPool.
func CommonPool() *Pool {
	if commonPool == nil {
		commonPool = New()
	}
	return commonPool
}

// SetCommonPool replaces the process-wide pool. Pass nil to reset;
// the next CommonPool call creates a fresh default pool.
func SetCommonPool(p *Pool) {
	commonPool = p
}
