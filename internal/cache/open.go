package cache

import "fmt"

// Open builds the cache selected by CACHE_DRIVER.
func Open(driver, redisAddr string) (Cache, error) {
	switch driver {
	case "", "memory":
		return NewMemory(), nil
	case "redis":
		return NewRedis(redisAddr, "fleetconsole:"), nil
	}
	return nil, fmt.Errorf("%w: %q", errUnknownDriver, driver)
}
