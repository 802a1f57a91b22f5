package memory

import (
	"context"
	"sync"

	"contractpay/internal/identity"
	id "contractpay/pkg/domain"
	"contractpay/pkg/platform/sentinel"
)

// Directory is an in-memory identity.Directory used for local runs and tests.
type Directory struct {
	mu        sync.RWMutex
	profiles  map[id.UserID]identity.Profile
	contracts map[id.ContractID]identity.Contract
}

func NewDirectory() *Directory {
	return &Directory{
		profiles:  make(map[id.UserID]identity.Profile),
		contracts: make(map[id.ContractID]identity.Contract),
	}
}

// PutProfile inserts or replaces a profile.
func (d *Directory) PutProfile(p identity.Profile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.profiles[p.UserID] = p
}

// PutContract inserts or replaces a contract.
func (d *Directory) PutContract(c identity.Contract) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contracts[c.ID] = c
}

func (d *Directory) ProfileByUserID(_ context.Context, userID id.UserID) (*identity.Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.profiles[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

func (d *Directory) ProfileByTalentID(_ context.Context, talentID id.TalentID) (*identity.Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if talentID.IsNil() {
		return nil, sentinel.ErrNotFound
	}
	for _, p := range d.profiles {
		if p.TalentID == talentID {
			cp := p
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (d *Directory) Contract(_ context.Context, contractID id.ContractID) (*identity.Contract, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.contracts[contractID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

func (d *Directory) ContractsForParty(_ context.Context, userID id.UserID, talentID id.TalentID) ([]identity.Contract, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]identity.Contract, 0)
	for _, c := range d.contracts {
		if c.ClientID == userID || (!talentID.IsNil() && c.TalentID == talentID) {
			out = append(out, c)
		}
	}
	return out, nil
}
