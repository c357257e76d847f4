package engine

import (
	"context"
	"slices"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/dcaf-go/dcaf/mac"
	"github.com/dcaf-go/dcaf/methods"
	"github.com/dcaf-go/dcaf/psk"
	"github.com/dcaf-go/dcaf/storage"
	"github.com/dcaf-go/dcaf/storage/model"
)

// ListCams returns all known CAMs
func (e *Engine) ListCams() ([]model.CamInfo, error) {
	return e.backends.Cams.List()
}

// GetCam returns the CAM with the passed identifier
func (e *Engine) GetCam(id string) (*model.CamInfo, error) {
	return e.backends.Cams.Get(id)
}

// AddCam adds a new CAM
func (e *Engine) AddCam(cam model.CamInfo) error {
	if err := e.backends.Cams.Create(cam); err != nil {
		return err
	}
	log.WithField("cam", cam.Identifier).Info("added cam")
	return nil
}

// UpdateCam replaces a CAM or adds it if it does not exist
func (e *Engine) UpdateCam(cam model.CamInfo) error {
	if err := e.backends.Cams.Upsert(cam); err != nil {
		return err
	}
	log.WithField("cam", cam.Identifier).Info("updated cam")
	return nil
}

// DeleteCam deletes a CAM together with its access rules. If revoke is set,
// all tickets issued to the CAM are revoked.
func (e *Engine) DeleteCam(id string, revoke bool) error {
	var revoked int
	err := e.backends.InTransaction(
		func(tx model.Backends) error {
			if err := tx.Cams.Delete(id); err != nil {
				return err
			}
			if err := tx.Rules.DeleteByCam(id); err != nil {
				return err
			}
			if !revoke {
				return nil
			}
			tickets, err := tx.Tickets.ListByCam(id)
			if err != nil {
				return err
			}
			for _, t := range tickets {
				ok, err := e.revokeTicket(tx, t.ID)
				if err != nil {
					return err
				}
				if ok {
					revoked++
				}
			}
			return nil
		},
	)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"cam": id, "revoked": revoked}).Info("deleted cam")
	return nil
}

// ListServers returns all known servers
func (e *Engine) ListServers() ([]model.ServerInfo, error) {
	return e.backends.Servers.List()
}

// GetServer returns the server with the passed host
func (e *Engine) GetServer(host string) (*model.ServerInfo, error) {
	return e.backends.Servers.Get(host)
}

// AddServer adds a new server and stores its pre-shared key
func (e *Engine) AddServer(ctx context.Context, info model.ServerInfo) error {
	if err := e.backends.Servers.Create(info); err != nil {
		return err
	}
	e.storeServerKey(info)
	e.invalidateServer(ctx, info.Host)
	log.WithField("server", info.Host).Info("added server")
	return nil
}

// UpdateServer replaces a server or adds it if it does not exist. The
// sequence number of an existing server is incremented.
func (e *Engine) UpdateServer(ctx context.Context, info model.ServerInfo) (*model.ServerInfo, error) {
	err := e.backends.InTransaction(
		func(tx model.Backends) error {
			existing, err := tx.Servers.Get(info.Host)
			if err != nil {
				if !model.IsNotFound(err) {
					return err
				}
			} else {
				info.SequenceNumber = existing.SequenceNumber + 1
			}
			return tx.Servers.Upsert(info)
		},
	)
	if err != nil {
		return nil, err
	}
	e.storeServerKey(info)
	e.invalidateServer(ctx, info.Host)
	log.WithFields(log.Fields{"server": info.Host, "seq": info.SequenceNumber}).Info("updated server")
	return &info, nil
}

func (e *Engine) storeServerKey(info model.ServerInfo) {
	if e.keys == nil {
		return
	}
	if info.PreSharedKey == "" {
		if err := e.keys.Delete(info.Host); err != nil && !errors.Is(err, psk.ErrNotFound) {
			logServerKeyError(err, info.Host, "could not delete pre-shared key")
		}
		return
	}
	if err := e.keys.Set(info.Host, []byte(info.PreSharedKey)); err != nil {
		logServerKeyError(err, info.Host, "could not store pre-shared key")
	}
}

func logServerKeyError(err error, host, msg string) {
	entry := log.WithError(err).WithField("server", host)
	if psk.IsUnsupported(err) {
		entry.Debug(msg)
		return
	}
	entry.Warn(msg)
}

// DeleteServer deletes a server, its pre-shared key, and every access rule
// that references it. If revoke is set, all tickets issued for the server are
// revoked.
func (e *Engine) DeleteServer(ctx context.Context, host string, revoke bool) error {
	var revoked int
	err := e.backends.InTransaction(
		func(tx model.Backends) error {
			if err := tx.Servers.Delete(host); err != nil {
				return err
			}
			rules, err := tx.Rules.List()
			if err != nil {
				return err
			}
			for _, r := range rules {
				if !r.ReferencesServer(host) {
					continue
				}
				if err = tx.Rules.Delete(r.ID); err != nil {
					return err
				}
				log.WithFields(log.Fields{"rule": r.ID, "server": host}).Info("deleted access rule of deleted server")
			}
			if !revoke {
				return nil
			}
			tickets, err := tx.Tickets.ListByServer(host)
			if err != nil {
				return err
			}
			for _, t := range tickets {
				ok, err := e.revokeTicket(tx, t.ID)
				if err != nil {
					return err
				}
				if ok {
					revoked++
				}
			}
			return nil
		},
	)
	if err != nil {
		return err
	}
	if e.keys != nil {
		if err = e.keys.Delete(host); err != nil {
			logServerKeyError(err, host, "could not delete pre-shared key")
		}
	}
	e.invalidateServer(ctx, host)
	log.WithFields(log.Fields{"server": host, "revoked": revoked}).Info("deleted server")
	return nil
}

// ListAccessRules returns all access rules
func (e *Engine) ListAccessRules() ([]model.AccessRule, error) {
	return e.backends.Rules.List()
}

// GetAccessRule returns the access rule with the passed id
func (e *Engine) GetAccessRule(id string) (*model.AccessRule, error) {
	return e.backends.Rules.Get(id)
}

// narrow checks the server access rules of rule against the servers'
// declared resources and restricts their methods to the supported ones
func narrow(tx model.Backends, rule model.AccessRule) (model.AccessRule, error) {
	if rule.ID == "" || rule.CamIdentifier == "" {
		return rule, errors.Wrap(ErrMalformedInput, "access rule needs an id and a cam")
	}
	if len(rule.ServerAccessRules) == 0 {
		return rule, errors.Wrap(ErrMalformedInput, "access rule without server access rules")
	}
	narrowed := rule
	narrowed.ServerAccessRules = nil
	for _, sr := range rule.ServerAccessRules {
		info, err := tx.Servers.Get(sr.ServerHost)
		if err != nil {
			return rule, err
		}
		res, ok := info.Resource(sr.Resource)
		if !ok {
			return rule, errors.Wrapf(ErrResourceNotFound, "server %s has no resource %s", sr.ServerHost, sr.Resource)
		}
		supported := methods.Intersect(sr.Methods, res.Methods)
		if dropped := methods.Without(sr.Methods, supported); dropped != 0 {
			log.WithFields(
				log.Fields{
					"server":    sr.ServerHost,
					"resource":  sr.Resource,
					"dropped":   dropped.String(),
					"supported": supported.String(),
				},
			).Warn("server does not support all requested methods")
		}
		if supported == 0 {
			return rule, errors.Wrapf(ErrNoSupportedMethods, "%s%s", sr.ServerHost, sr.Resource)
		}
		sr.Methods = supported
		narrowed.AddRule(sr)
	}
	return narrowed, nil
}

// AddAccessRule adds a new access rule. All referenced servers must exist
// and declare the referenced resources; methods not supported by a resource
// are dropped.
func (e *Engine) AddAccessRule(rule model.AccessRule) (*model.AccessRule, error) {
	var stored model.AccessRule
	err := e.backends.InTransaction(
		func(tx model.Backends) (err error) {
			stored, err = narrow(tx, rule)
			if err != nil {
				return err
			}
			return tx.Rules.Create(stored)
		},
	)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"rule": stored.ID, "cam": stored.CamIdentifier}).Info("added access rule")
	return &stored, nil
}

// UpdateAccessRule replaces an access rule or adds it if it does not exist.
// If revoke is set, tickets of the rule's CAM that are no longer covered by
// the rule are revoked.
func (e *Engine) UpdateAccessRule(rule model.AccessRule, revoke bool) (*model.AccessRule, error) {
	var stored model.AccessRule
	var revoked int
	err := e.backends.InTransaction(
		func(tx model.Backends) error {
			var err error
			stored, err = narrow(tx, rule)
			if err != nil {
				return err
			}
			if err = tx.Rules.Upsert(stored); err != nil {
				return err
			}
			if !revoke {
				return nil
			}
			tickets, err := tx.Tickets.ListByCam(stored.CamIdentifier)
			if err != nil {
				return err
			}
			for _, t := range tickets {
				if !affectedBy(stored, t) {
					continue
				}
				ok, err := e.revokeTicket(tx, t.ID)
				if err != nil {
					return err
				}
				if ok {
					revoked++
				}
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"rule": stored.ID, "revoked": revoked}).Info("updated access rule")
	return &stored, nil
}

// affectedBy checks if a ticket has an authorization that no server access
// rule of rule covers, i.e. none for the same host and resource grants all of
// its methods
func affectedBy(rule model.AccessRule, t model.Ticket) bool {
	for _, a := range t.Face.SAI {
		if !slices.ContainsFunc(
			rule.ServerAccessRules, func(sr model.ServerAccessRule) bool {
				return sr.ServerHost == a.Host && sr.Resource == a.ResourcePath && sr.Methods.Contains(a.Methods)
			},
		) {
			return true
		}
	}
	return false
}

// DeleteAccessRule deletes an access rule
func (e *Engine) DeleteAccessRule(id string) error {
	if err := e.backends.Rules.Delete(id); err != nil {
		return err
	}
	log.WithField("rule", id).Info("deleted access rule")
	return nil
}

// ListTickets returns all issued tickets
func (e *Engine) ListTickets() ([]model.Ticket, error) {
	return e.backends.Tickets.List()
}

// GetTicket returns the ticket with the passed id
func (e *Engine) GetTicket(id string) (*model.Ticket, error) {
	return e.backends.Tickets.Get(id)
}

// ListRevocations returns all revocations
func (e *Engine) ListRevocations() ([]model.RevocationTicket, error) {
	return e.backends.Revocations.List()
}

// TicketSettings are the parameters for newly issued tickets
type TicketSettings struct {
	Lifetime  int64  `json:"lifetime"`
	MacMethod string `json:"mac_method"`
}

// TicketSettings returns the current TicketSettings
func (e *Engine) TicketSettings() (TicketSettings, error) {
	lifetime, err := storage.GetTicketLifetime(e.backends.Settings)
	if err != nil {
		return TicketSettings{}, err
	}
	m, err := storage.GetMacMethod(e.backends.Settings)
	if err != nil {
		return TicketSettings{}, err
	}
	return TicketSettings{
		Lifetime:  lifetime,
		MacMethod: m.String(),
	}, nil
}

// SetTicketSettings changes the TicketSettings; zero values are left
// unchanged
func (e *Engine) SetTicketSettings(s TicketSettings) error {
	var m mac.Method
	if s.MacMethod != "" {
		var err error
		if m, err = mac.ParseMethod(s.MacMethod); err != nil {
			return errors.Wrap(ErrMalformedInput, err.Error())
		}
	}
	return e.backends.InTransaction(
		func(tx model.Backends) error {
			if s.Lifetime != 0 {
				if s.Lifetime < 0 {
					return errors.Wrap(ErrMalformedInput, "lifetime must be positive")
				}
				if err := storage.SetTicketLifetime(tx.Settings, s.Lifetime); err != nil {
					return err
				}
			}
			if s.MacMethod != "" {
				return storage.SetMacMethod(tx.Settings, m)
			}
			return nil
		},
	)
}
