package config

import "testing"

func TestConnectRedisSkipsWithoutAddress(t *testing.T) {
	t.Setenv("REDIS_ADDRESS", "")

	ConnectRedisWithRetry()

	if GetRedisDB() != nil {
		t.Fatal("expected no redis client without REDIS_ADDRESS")
	}
	if GetRedisLock() != nil {
		t.Fatal("expected no lock client without REDIS_ADDRESS")
	}

	// Helpers must degrade to cache misses / no-ops, never errors.
	if err := SetRedisObject("k", "v", 0); err != nil {
		t.Errorf("SetRedisObject without redis: %v", err)
	}
	var out string
	exists, err := GetRedisObject("k", &out)
	if err != nil || exists {
		t.Errorf("GetRedisObject without redis: exists=%v err=%v, want miss", exists, err)
	}
	if err := RemoveRedisKey("k"); err != nil {
		t.Errorf("RemoveRedisKey without redis: %v", err)
	}
}
