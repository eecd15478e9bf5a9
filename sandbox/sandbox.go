// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sandbox

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/version"
	"github.com/gorilla/rpc/v2"

	cjson "github.com/ava-labs/avalanchego/utils/json"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/contractvm/host"
	"github.com/ava-labs/contractvm/resolver"
)

const (
	// Name is the name the service is registered under.
	Name = "sandbox"
	// Endpoint is the path the binary serves the service on.
	Endpoint = "/ext/" + Name

	outcomeCacheSize = 2048
)

var (
	Version = version.NewDefaultVersion(0, 1, 0)

	errUnknownContract = errors.New("unknown contract")
	errUnknownOutcome  = errors.New("unknown transaction")
)

// Sandbox serves a resolver over JSON-RPC. Requests are serialized.
type Sandbox struct {
	lock sync.Mutex

	resolver  *resolver.Resolver
	contracts map[string]*host.Contract
	outcomes  cache.Cacher
	log       log.Logger

	// trace receives a receipt table per transaction when set
	trace io.Writer
}

// New returns a sandbox around [r] that can deploy [contracts] by name.
func New(r *resolver.Resolver, contracts ...*host.Contract) *Sandbox {
	sb := &Sandbox{
		resolver:  r,
		contracts: make(map[string]*host.Contract, len(contracts)),
		outcomes:  &cache.LRU{Size: outcomeCacheSize},
		log:       host.NewDiscardLogger("module", Name),
	}
	for _, contract := range contracts {
		sb.contracts[contract.Name] = contract
	}
	return sb
}

// SetLogger sets the logger requests are traced to.
func (sb *Sandbox) SetLogger(logger log.Logger) {
	sb.lock.Lock()
	defer sb.lock.Unlock()

	sb.log = logger
}

// SetTrace writes the receipt table of every submitted transaction to [w].
func (sb *Sandbox) SetTrace(w io.Writer) {
	sb.lock.Lock()
	defer sb.lock.Unlock()

	sb.trace = w
}

// Genesis creates [accounts] the first time the underlying state is used.
func (sb *Sandbox) Genesis(accounts []resolver.GenesisAccount) error {
	sb.lock.Lock()
	defer sb.lock.Unlock()

	created, err := sb.resolver.InitGenesis(accounts)
	if err != nil {
		return fmt.Errorf("error while initializing genesis: %w", err)
	}
	sb.log.Info("genesis", "created", created, "accounts", len(accounts))
	return nil
}

// Handler returns the JSON-RPC handler of the service.
func (sb *Sandbox) Handler() (http.Handler, error) {
	server := rpc.NewServer()
	codec := cjson.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	return server, server.RegisterService(&Service{sb: sb}, Name)
}

func (sb *Sandbox) contract(name string) (*host.Contract, error) {
	contract, ok := sb.contracts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownContract, name)
	}
	return contract, nil
}

func (sb *Sandbox) call(tx resolver.Transaction) (*resolver.Outcome, error) {
	sb.lock.Lock()
	defer sb.lock.Unlock()

	outcome, err := sb.resolver.Call(tx)
	if err != nil {
		return nil, err
	}
	sb.outcomes.Put(outcome.TxID, outcome)
	if sb.trace != nil {
		outcome.WriteTable(sb.trace)
	}
	return outcome, nil
}

func (sb *Sandbox) outcome(txID ids.ID) (*resolver.Outcome, error) {
	sb.lock.Lock()
	defer sb.lock.Unlock()

	outcomeIntf, ok := sb.outcomes.Get(txID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownOutcome, resolver.FormatID(txID))
	}
	return outcomeIntf.(*resolver.Outcome), nil
}
