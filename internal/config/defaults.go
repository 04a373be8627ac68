package config

import "time"

const defaultPort = 8080

var defaultStore = Store{
	Backend:    BackendMemory,
	SQLitePath: "orders.db",
	MongoURI:   "mongodb://localhost:27017",
	MongoDB:    "shopflow",
}

var defaultDB = DB{
	Host: "127.0.0.1",
	Port: "5432",
	User: "myuser",
	Pass: "mypassword",
	Name: "test_db",
}

// Store location defaults to central Dhaka.
var defaultTracking = Tracking{
	TickInterval:           2 * time.Second,
	StoreLat:               23.8103,
	StoreLng:               90.4125,
	DefaultPromisedMinutes: 10,
	DestinationJitterKm:    5,
	OperationTimeout:       3 * time.Second,
}

var defaultKafka = Kafka{
	GroupID:        "shopflow-tracking",
	LocationsTopic: "rider-locations",
}

var defaultRateLimit = RateLimit{
	Enabled:    true,
	Rate:       5,
	Burst:      10,
	TTL:        10 * time.Minute,
	MaxBuckets: 10000,
}

var defaultPprof = Pprof{
	Enabled: false,
	Addr:    "127.0.0.1:6060",
}

// DefaultPort returns the default port.
func DefaultPort() int {
	return defaultPort
}

// DefaultDB returns the default database settings.
func DefaultDB() DB {
	return defaultDB
}

// DefaultTracking returns the default simulator settings.
func DefaultTracking() Tracking {
	return defaultTracking
}
