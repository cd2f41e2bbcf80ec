package ledger

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// Simulator is an in-memory Client. It applies token transfers and
// holding-account creations it can decode from submitted transactions
// and confirms everything else as-is. Used when the service runs in
// simulate mode and by tests.
type Simulator struct {
	mu        sync.Mutex
	seq       uint64
	accounts  map[solana.PublicKey]bool
	balances  map[solana.PublicKey]uint64
	statuses  map[solana.Signature]*SignatureStatus
	sendErr   error
	sendCalls int
}

const tokenTransferIndex = 3 // SPL token program Transfer instruction

func NewSimulator() *Simulator {
	return &Simulator{
		accounts: make(map[solana.PublicKey]bool),
		balances: make(map[solana.PublicKey]uint64),
		statuses: make(map[solana.Signature]*SignatureStatus),
	}
}

// SetTokenBalance seeds a holding account with a base-unit balance and
// marks it initialized.
func (s *Simulator) SetTokenBalance(account solana.PublicKey, amount uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account] = true
	s.balances[account] = amount
}

// SetAccount marks an address as an initialized account.
func (s *Simulator) SetAccount(account solana.PublicKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account] = true
}

// FailSends makes every subsequent SendTransaction return err. Pass
// nil to restore normal behavior.
func (s *Simulator) FailSends(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendErr = err
}

// SendCalls reports how many transactions were submitted.
func (s *Simulator) SendCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendCalls
}

func (s *Simulator) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	var hash solana.Hash
	binary.LittleEndian.PutUint64(hash[:8], s.seq)
	return hash, nil
}

func (s *Simulator) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[account], nil
}

func (s *Simulator) TokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accounts[account] {
		return 0, fmt.Errorf("account %s does not exist", account)
	}
	return s.balances[account], nil
}

func (s *Simulator) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendCalls++
	if s.sendErr != nil {
		return solana.Signature{}, s.sendErr
	}

	s.seq++
	var sig solana.Signature
	binary.LittleEndian.PutUint64(sig[:8], s.seq)

	status := &SignatureStatus{Found: true, Confirmed: true}
	for _, instr := range tx.Message.Instructions {
		program, err := tx.Message.Program(instr.ProgramIDIndex)
		if err != nil {
			continue
		}
		switch {
		case program.Equals(solana.TokenProgramID):
			if txErr := s.applyTokenInstruction(&tx.Message, instr); txErr != "" {
				status.TxErr = txErr
			}
		case program.Equals(solana.SPLAssociatedTokenAccountProgramID):
			// Account order: payer, associated account, wallet, mint, ...
			if len(instr.Accounts) > 1 {
				created := tx.Message.AccountKeys[instr.Accounts[1]]
				s.accounts[created] = true
			}
		}
	}

	s.statuses[sig] = status
	return sig, nil
}

func (s *Simulator) applyTokenInstruction(msg *solana.Message, instr solana.CompiledInstruction) string {
	if len(instr.Data) != 9 || instr.Data[0] != tokenTransferIndex || len(instr.Accounts) < 2 {
		return ""
	}
	source := msg.AccountKeys[instr.Accounts[0]]
	dest := msg.AccountKeys[instr.Accounts[1]]
	amount := binary.LittleEndian.Uint64(instr.Data[1:9])
	if s.balances[source] < amount {
		return fmt.Sprintf("InstructionError: insufficient funds in %s", source)
	}
	if !s.accounts[dest] {
		return fmt.Sprintf("InstructionError: uninitialized account %s", dest)
	}
	s.balances[source] -= amount
	s.balances[dest] += amount
	return ""
}

func (s *Simulator) SignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.statuses[sig]; ok {
		return status, nil
	}
	return &SignatureStatus{}, nil
}

func (s *Simulator) TransactionExists(ctx context.Context, sig solana.Signature) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.statuses[sig]
	return ok, nil
}
