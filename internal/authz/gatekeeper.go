package authz

import (
	"job-order-system/internal/entities"
	apperrors "job-order-system/pkg/errors"
)

// Owner - кто считается владельцем записи: пользователь (создатель) или сотрудник
// (техник, бригадир, оценщик).
type Owner struct {
	userID     uint64
	employeeID uint64
}

func OwnedByUser(id uint64) Owner {
	return Owner{userID: id}
}

func OwnedByEmployee(id uint64) Owner {
	return Owner{employeeID: id}
}

func (o Owner) matches(actor *entities.User) bool {
	if o.userID != 0 && actor.ID == o.userID {
		return true
	}
	if o.employeeID != 0 && actor.EmployeeID.Valid && actor.EmployeeID.Uint64 == o.employeeID {
		return true
	}
	return false
}

type Gatekeeper struct {
	table *Table
}

func NewGatekeeper(table *Table) *Gatekeeper {
	return &Gatekeeper{table: table}
}

func (g *Gatekeeper) Can(actor *entities.User, permission string) bool {
	if actor == nil {
		return false
	}
	return g.table.Has(actor.Role, permission)
}

// Allows - есть право ИЛИ актор владеет записью.
func (g *Gatekeeper) Allows(actor *entities.User, permission string, owners ...Owner) bool {
	if actor == nil {
		return false
	}
	if g.Can(actor, permission) {
		return true
	}
	for _, o := range owners {
		if o.matches(actor) {
			return true
		}
	}
	return false
}

func (g *Gatekeeper) Authorize(actor *entities.User, permission string, owners ...Owner) error {
	if !g.Allows(actor, permission, owners...) {
		return apperrors.ErrForbidden
	}
	return nil
}

// AuthorizeOwner - нужно и право, и владение.
func (g *Gatekeeper) AuthorizeOwner(actor *entities.User, permission string, owner Owner) error {
	if !g.Can(actor, permission) || !owner.matches(actor) {
		return apperrors.ErrForbidden
	}
	return nil
}

// AuthorizeResolution - право на решение и запрет утверждать собственную заявку.
func (g *Gatekeeper) AuthorizeResolution(actor *entities.User, permission string, submitterID uint64) error {
	if !g.Can(actor, permission) {
		return apperrors.ErrForbidden
	}
	if actor.ID == submitterID {
		return apperrors.ErrForbidden
	}
	return nil
}

func (g *Gatekeeper) Permissions(actor *entities.User) []string {
	if actor == nil {
		return nil
	}
	return g.table.Permissions(actor.Role)
}
