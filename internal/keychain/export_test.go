package keychain

// waiting reports how many callers are attached to the flight for k.
func (c *Connector) waiting(k string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.flights[k]; ok {
		return f.waiters
	}
	return 0
}
