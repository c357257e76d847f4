package main

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"tideland.dev/go/slices"

	"github.com/dcaf-go/dcaf/psk"
	"github.com/dcaf-go/dcaf/storage/model"
)

// migrationStats counts the imported entries per kind
type migrationStats struct {
	Cams        int
	Servers     int
	Rules       int
	Tickets     int
	Revocations int
	Keys        int
}

type migrator struct {
	src    legacyDir
	backs  model.Backends
	keys   psk.Store
	dryRun bool
	stats  migrationStats
}

// migrateDB imports the catalog, the tickets, and the revocations
func (m *migrator) migrateDB() error {
	cams, err := readLegacy[legacyCam](m.src, legacyCamsFile)
	if err != nil {
		return err
	}
	servers, err := readLegacy[legacyServer](m.src, legacyServersFile)
	if err != nil {
		return err
	}
	rules, err := readLegacy[legacyRule](m.src, legacyRulesFile)
	if err != nil {
		return err
	}
	tickets, err := readLegacy[legacyTicket](m.src, legacyTicketsFile)
	if err != nil {
		return err
	}
	revocations, err := readLegacy[legacyRevocation](m.src, legacyRevocationsFile)
	if err != nil {
		return err
	}
	m.warnUnknownCams(cams, rules)

	if m.dryRun {
		m.stats = migrationStats{
			Cams:        len(cams),
			Servers:     len(servers),
			Rules:       len(rules),
			Tickets:     len(tickets),
			Revocations: len(revocations),
		}
		return nil
	}
	err = m.backs.InTransaction(
		func(tx model.Backends) error {
			for _, c := range cams {
				if err := tx.Cams.Upsert(c.model()); err != nil {
					return err
				}
				m.stats.Cams++
			}
			for _, s := range servers {
				if err := tx.Servers.Upsert(s.model()); err != nil {
					return err
				}
				m.stats.Servers++
			}
			for _, r := range rules {
				if err := tx.Rules.Upsert(r.model()); err != nil {
					return err
				}
				m.stats.Rules++
			}
			for _, t := range tickets {
				if _, err := tx.Tickets.Get(t.ID); err == nil {
					log.WithField("ticket", t.ID).Debug("ticket already present")
					continue
				}
				if err := tx.Tickets.Create(t.model()); err != nil {
					return err
				}
				m.stats.Tickets++
			}
			existing, err := tx.Revocations.List()
			if err != nil {
				return err
			}
			revoked := make(map[string]bool, len(existing))
			for _, r := range existing {
				revoked[r.TicketID] = true
			}
			for _, r := range revocations {
				rev := r.model()
				if revoked[rev.TicketID] {
					log.WithField("ticket", rev.TicketID).Debug("revocation already present")
					continue
				}
				if err = tx.Revocations.Create(&rev); err != nil {
					return err
				}
				revoked[rev.TicketID] = true
				m.stats.Revocations++
			}
			return nil
		},
	)
	if err != nil {
		return errors.Wrap(err, "import failed, nothing was written")
	}
	for _, s := range servers {
		if s.PreSharedKey == "" {
			continue
		}
		if err = m.keys.Set(s.Host, []byte(s.PreSharedKey)); err != nil && !psk.IsUnsupported(err) {
			return errors.Wrapf(err, "could not store key of server %s", s.Host)
		}
	}
	return nil
}

// warnUnknownCams logs the CAMs rules are granted to that are not in the
// catalog
func (m *migrator) warnUnknownCams(cams []legacyCam, rules []legacyRule) {
	known := make(map[string]bool, len(cams))
	for _, c := range cams {
		known[c.model().Identifier] = true
	}
	var referenced []string
	for _, r := range rules {
		referenced = append(referenced, r.model().CamIdentifier)
	}
	for _, cam := range slices.Unique(referenced) {
		if !known[cam] {
			log.WithField("cam", cam).Warn("access rule for unknown cam")
		}
	}
}

// migrateKeys imports the keys.json file into the psk store
func (m *migrator) migrateKeys() error {
	entries, err := readLegacyKeys(m.src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Identity == "" || e.PSK == "" {
			log.WithField("identity", e.Identity).Warn("skipping incomplete key entry")
			continue
		}
		if m.dryRun {
			m.stats.Keys++
			continue
		}
		if e.PeerAddress != nil && e.PeerAddress.Host != "" {
			err = m.keys.Bind(legacyPeer(e.PeerAddress.Host), e.Identity, []byte(e.PSK))
		} else {
			err = m.keys.Set(e.Identity, []byte(e.PSK))
		}
		if err != nil {
			return errors.Wrapf(err, "could not store key of %s", e.Identity)
		}
		m.stats.Keys++
	}
	return nil
}
