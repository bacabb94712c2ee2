package flowlookup

import (
	"github.com/gostonefire/flowlookup/flowerr"
	"github.com/gostonefire/flowlookup/hashfunc"
	"github.com/gostonefire/flowlookup/interfaces"
	"github.com/gostonefire/flowlookup/internal/conf"
	"github.com/gostonefire/flowlookup/internal/logfields"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Config - Runtime configuration of an Engine
//   - Name identifies the engine in logs and metric labels
//   - HashTableCount is the number of hash tables the engine manages, 1 to 4
//   - StrictArgs enables the record address window check and the record kind check on remove
//   - ConsistencyCheck re-validates the bucket chain and slot contents on every add and remove
//   - LargeTransformSupport allows large transform records
//   - DebugFSM enables call order tracking, violations return flowerr.IllegalInState
//   - QuiescenceDelay is the number of busy-wait iterations before a vacated bucket or slot is reused
//   - Hasher computes flow hash IDs, the hardware algorithm is used if nil
//   - Cache is notified when a record is removed from a lookup cached table, may be nil
//   - Logger receives the engine log entries, a logger on the standard logrus logger is used if nil
//   - Registerer gets the engine metrics registered, metrics are kept unregistered if nil
type Config struct {
	Name                  string
	HashTableCount        int
	StrictArgs            bool
	ConsistencyCheck      bool
	LargeTransformSupport bool
	DebugFSM              bool
	QuiescenceDelay       uint
	Hasher                hashfunc.Hasher
	Cache                 interfaces.LookupCache
	Logger                logrus.FieldLogger
	Registerer            prometheus.Registerer
}

// DefaultConfig - Returns the default configuration, all checks on except call order tracking
func DefaultConfig() Config {
	return Config{
		Name:                  "flue0",
		HashTableCount:        1,
		StrictArgs:            true,
		ConsistencyCheck:      true,
		LargeTransformSupport: true,
		QuiescenceDelay:       conf.DefaultQuiescenceDelay,
	}
}

// validate - Checks the configuration and fills in defaults for optional collaborators
func (C *Config) validate() (err error) {
	if C.HashTableCount < 1 || C.HashTableCount > conf.MaxHashTables {
		err = flowerr.NewArgumentError("hash table count must be 1 to %d, got %d", conf.MaxHashTables, C.HashTableCount)
		return
	}

	if C.Logger == nil {
		C.Logger = logrus.StandardLogger().WithField(logfields.LogSubsys, "flowlookup")
	}

	return
}
