package config

const (
	StoreDriverMemory   = "memory"
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"

	SessionStoreDefault = "default" // sessions live in the user store
	SessionStoreRedis   = "redis"
)

type StoreConfig interface {
	GetStoreDriver() string
	GetStoreDSN() string
	GetSessionStore() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
}

type Store struct {
	s settings
}

var _ StoreConfig = Store{}

func (st Store) GetStoreDriver() string   { return st.s.Store.Driver }
func (st Store) GetStoreDSN() string      { return st.s.Store.DSN }
func (st Store) GetSessionStore() string  { return st.s.Session.Store }
func (st Store) GetRedisAddr() string     { return st.s.Redis.Addr }
func (st Store) GetRedisPassword() string { return st.s.Redis.Password }
func (st Store) GetRedisDB() int          { return st.s.Redis.DB }
