package distributor

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/gagliardetto/solana-go"

	"presale/ledger"
)

// mockLedger is a scriptable ledger.Client that counts every call.
type mockLedger struct {
	mu sync.Mutex

	accounts map[solana.PublicKey]bool
	balances map[solana.PublicKey]uint64

	// proofStatus is returned for signatures the mock did not issue
	// itself, i.e. payment proofs under verification.
	proofStatus *ledger.SignatureStatus
	proofExists bool

	sendErr      error
	confirmSends bool

	blockhashCalls int
	existsCalls    int
	balanceCalls   int
	sendCalls      int
	statusCalls    int
	txExistsCalls  int

	seq      uint64
	sentSigs map[solana.Signature]bool

	lastTransfer struct {
		source      solana.PublicKey
		destination solana.PublicKey
		amount      uint64
	}
}

func newMockLedger() *mockLedger {
	return &mockLedger{
		accounts:     make(map[solana.PublicKey]bool),
		balances:     make(map[solana.PublicKey]uint64),
		sentSigs:     make(map[solana.Signature]bool),
		confirmSends: true,
	}
}

func (m *mockLedger) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blockhashCalls + m.existsCalls + m.balanceCalls + m.sendCalls + m.statusCalls + m.txExistsCalls
}

func (m *mockLedger) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blockhashCalls++
	m.seq++
	var hash solana.Hash
	binary.LittleEndian.PutUint64(hash[:8], m.seq)
	return hash, nil
}

func (m *mockLedger) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.existsCalls++
	return m.accounts[account], nil
}

func (m *mockLedger) TokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balanceCalls++
	return m.balances[account], nil
}

func (m *mockLedger) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendCalls++
	if m.sendErr != nil {
		return solana.Signature{}, m.sendErr
	}

	m.seq++
	var sig solana.Signature
	binary.LittleEndian.PutUint64(sig[:8], m.seq)
	m.sentSigs[sig] = true

	for _, instr := range tx.Message.Instructions {
		program, err := tx.Message.Program(instr.ProgramIDIndex)
		if err != nil {
			continue
		}
		switch {
		case program.Equals(solana.TokenProgramID):
			if len(instr.Data) == 9 && instr.Data[0] == 3 && len(instr.Accounts) >= 2 {
				source := tx.Message.AccountKeys[instr.Accounts[0]]
				dest := tx.Message.AccountKeys[instr.Accounts[1]]
				amount := binary.LittleEndian.Uint64(instr.Data[1:9])
				m.lastTransfer.source = source
				m.lastTransfer.destination = dest
				m.lastTransfer.amount = amount
				if m.balances[source] >= amount {
					m.balances[source] -= amount
					m.balances[dest] += amount
				}
			}
		case program.Equals(solana.SPLAssociatedTokenAccountProgramID):
			if len(instr.Accounts) > 1 {
				m.accounts[tx.Message.AccountKeys[instr.Accounts[1]]] = true
			}
		}
	}
	return sig, nil
}

func (m *mockLedger) SignatureStatus(ctx context.Context, sig solana.Signature) (*ledger.SignatureStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls++
	if m.sentSigs[sig] {
		if m.confirmSends {
			return &ledger.SignatureStatus{Found: true, Confirmed: true}, nil
		}
		return &ledger.SignatureStatus{}, nil
	}
	if m.proofStatus != nil {
		return m.proofStatus, nil
	}
	return &ledger.SignatureStatus{}, nil
}

func (m *mockLedger) TransactionExists(ctx context.Context, sig solana.Signature) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txExistsCalls++
	if m.sentSigs[sig] {
		return true, nil
	}
	return m.proofExists, nil
}
