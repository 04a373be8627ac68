package logx

// nop discards everything. With returns the same value, so derived loggers
// cost nothing in tests and in packages constructed without a logger.
type nop struct{}

var discard Logger = nop{}

// Nop returns a Logger that drops every entry.
func Nop() Logger { return discard }

func (nop) Debug(string, ...Field) {}
func (nop) Info(string, ...Field)  {}
func (nop) Warn(string, ...Field)  {}
func (nop) Error(string, ...Field) {}
func (n nop) With(...Field) Logger { return n }
func (nop) Sync() error            { return nil }
