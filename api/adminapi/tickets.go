package adminapi

import (
	arrays "github.com/adam-hanna/arrayOperations"
	"github.com/gofiber/fiber/v2"

	"github.com/dcaf-go/dcaf/engine"
	"github.com/dcaf-go/dcaf/storage/model"
)

func ticketIDs(tickets []model.Ticket) []string {
	ids := make([]string, len(tickets))
	for i, t := range tickets {
		ids[i] = t.ID
	}
	return ids
}

// filterTickets returns the tickets matching the cam and server filters;
// empty filters match everything
func filterTickets(store model.TicketStore, cam, server string) ([]model.Ticket, error) {
	all, err := store.List()
	if err != nil {
		return nil, err
	}
	if cam == "" && server == "" {
		return all, nil
	}
	ids := ticketIDs(all)
	if cam != "" {
		byCam, err := store.ListByCam(cam)
		if err != nil {
			return nil, err
		}
		ids = arrays.Intersect(ids, ticketIDs(byCam))
	}
	if server != "" {
		byServer, err := store.ListByServer(server)
		if err != nil {
			return nil, err
		}
		ids = arrays.Intersect(ids, ticketIDs(byServer))
	}
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	tickets := make([]model.Ticket, 0, len(ids))
	for _, t := range all {
		if _, ok := wanted[t.ID]; ok {
			tickets = append(tickets, t)
		}
	}
	return tickets, nil
}

func registerTickets(r fiber.Router, eng *engine.Engine) {
	g := r.Group("/tickets")

	g.Get(
		"/", func(c *fiber.Ctx) error {
			tickets, err := filterTickets(eng.Backends().Tickets, c.Query("cam"), c.Query("server"))
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(tickets)
		},
	)

	g.Get(
		"/:id", func(c *fiber.Ctx) error {
			t, err := eng.GetTicket(c.Params("id"))
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(t)
		},
	)

	// Deleting a ticket revokes it
	g.Delete(
		"/:id", func(c *fiber.Ctx) error {
			revoked, err := eng.RevokeTicket(c.Params("id"))
			if err != nil {
				return writeError(c, err)
			}
			if !revoked {
				return c.Status(fiber.StatusNotFound).JSON(ErrorNotFound("ticket not found"))
			}
			return c.SendStatus(fiber.StatusNoContent)
		},
	)

	r.Get(
		"/revocations", func(c *fiber.Ctx) error {
			revocations, err := eng.ListRevocations()
			if err != nil {
				return writeError(c, err)
			}
			if c.QueryBool("pending") {
				pending := revocations[:0]
				for _, rev := range revocations {
					if rev.DeliveryTime == 0 {
						pending = append(pending, rev)
					}
				}
				revocations = pending
			}
			return c.JSON(revocations)
		},
	)
}
