package rtr

import "sync"

// tenantFileKey identifies one payload within one tenant's cloud file
// library.
type tenantFileKey struct {
	cid      string
	filename string
}

// tenantCache tracks which (cid, filename) pairs have already been
// uploaded to the RTR cloud file library, so DEPLOY only pays the
// upload cost once per tenant (spec §4.3 step 2). First-writer-wins:
// concurrent DEPLOY phases for the same tenant racing to upload the
// same payload settle on whichever goroutine's upsert lands first.
//
// Entries are evicted on a fatal put_denied response so a later run
// retries the upload instead of wrongly believing the payload is
// already staged (SPEC_FULL.md §3, resolving spec.md §9 Open Question 2).
type tenantCache struct {
	mu       sync.Mutex
	uploaded map[tenantFileKey]bool
}

func newTenantCache() *tenantCache {
	return &tenantCache{uploaded: make(map[tenantFileKey]bool)}
}

// alreadyUploaded reports whether filename is known uploaded for cid.
func (c *tenantCache) alreadyUploaded(cid, filename string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uploaded[tenantFileKey{cid, filename}]
}

// markUploaded records a successful upload for cid/filename.
func (c *tenantCache) markUploaded(cid, filename string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploaded[tenantFileKey{cid, filename}] = true
}

// evict forgets a prior upload, e.g. after a fatal put_denied forces
// a retry on the next DEPLOY attempt.
func (c *tenantCache) evict(cid, filename string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.uploaded, tenantFileKey{cid, filename})
}
