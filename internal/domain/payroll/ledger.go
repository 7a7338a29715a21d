package payroll

import (
	"context"
	"strings"
)

// AddItem appends a manual line to one employee's ledger and re-derives
// every aggregate from the full item set.
func (s *Service) AddItem(ctx context.Context, payrollID, payrollEmployeeID, description, itemType, category string, amount int64) (*Payroll, error) {
	if amount < 0 {
		return nil, ErrNegativeAmount
	}
	if itemType != ItemTypeCredit && itemType != ItemTypeDebit {
		return nil, ErrInvalidItemType
	}
	p, err := s.mutable(ctx, payrollID)
	if err != nil {
		return nil, err
	}
	pe, err := s.findEmployee(p, payrollEmployeeID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(category) == "" {
		category = CategoryManual
	}
	pe.Items = append(pe.Items, Item{
		ID:                newItemID(),
		PayrollEmployeeID: pe.ID,
		Description:       description,
		Type:              itemType,
		Category:          category,
		Amount:            amount,
		IsManual:          true,
	})
	Reaggregate(p)
	if err := s.store.SavePayroll(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateItem changes an item's description and amount in place.
func (s *Service) UpdateItem(ctx context.Context, payrollID, itemID, description string, amount int64) (*Payroll, error) {
	if amount < 0 {
		return nil, ErrNegativeAmount
	}
	p, err := s.mutable(ctx, payrollID)
	if err != nil {
		return nil, err
	}
	item := findItem(p, itemID)
	if item == nil {
		return nil, ErrItemNotFound
	}
	item.Description = description
	item.Amount = amount
	Reaggregate(p)
	if err := s.store.SavePayroll(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RemoveItem deletes one item, plus any items referencing it.
func (s *Service) RemoveItem(ctx context.Context, payrollID, itemID string) (*Payroll, error) {
	p, err := s.mutable(ctx, payrollID)
	if err != nil {
		return nil, err
	}
	if findItem(p, itemID) == nil {
		return nil, ErrItemNotFound
	}
	for i := range p.Employees {
		pe := &p.Employees[i]
		pe.Items = dropItems(pe.Items, map[string]bool{itemID: true})
	}
	Reaggregate(p)
	if err := s.store.SavePayroll(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func findItem(p *Payroll, itemID string) *Item {
	for i := range p.Employees {
		for j := range p.Employees[i].Items {
			if p.Employees[i].Items[j].ID == itemID {
				return &p.Employees[i].Items[j]
			}
		}
	}
	return nil
}

// dropItems removes the seeded ids and, transitively, every item whose
// ReferenceID points at a removed item.
func dropItems(items []Item, remove map[string]bool) []Item {
	for {
		grew := false
		for _, item := range items {
			if remove[item.ID] {
				continue
			}
			if item.ReferenceID != "" && remove[item.ReferenceID] {
				remove[item.ID] = true
				grew = true
			}
		}
		if !grew {
			break
		}
	}
	out := items[:0]
	for _, item := range items {
		if !remove[item.ID] {
			out = append(out, item)
		}
	}
	return out
}
