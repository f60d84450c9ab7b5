package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"netwalker/internal/domain"
	"netwalker/internal/repository"
)

// ErrMissingHostname is returned when facts carry no usable device identity
var ErrMissingHostname = errors.New("device facts carry no hostname")

// SaveWalk persists one device walk as a single atomic unit: the device
// row, its interfaces, VLANs, stack members, and one canonical link per
// neighbor announcement. Nothing is visible to readers until the commit.
func (s *Store) SaveWalk(ctx context.Context, walk *repository.Walk) (int64, bool, error) {
	var (
		deviceID    int64
		newlyWalked bool
	)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		deviceID, newlyWalked, err = s.upsertDeviceTx(ctx, tx, walk.Facts, walk.Status)
		if err != nil {
			return err
		}

		now := time.Now()
		if err := s.upsertInterfacesTx(ctx, tx, deviceID, walk.Facts.Interfaces, now); err != nil {
			return err
		}
		if err := s.upsertVlansTx(ctx, tx, deviceID, walk.Facts.Vlans, now); err != nil {
			return err
		}
		if err := s.upsertStackMembersTx(ctx, tx, deviceID, walk.Facts.StackMembers, now); err != nil {
			return err
		}

		for _, n := range walk.Facts.Neighbors {
			obs := repository.NeighborObservation{
				SrcName:          walk.Facts.Hostname,
				SrcIf:            n.SrcIf,
				DestName:         n.DestName,
				DestIf:           n.DestIf,
				Protocol:         n.Protocol,
				DestPlatform:     n.Platform,
				DestCapabilities: n.Capabilities,
			}
			if err := s.recordNeighborTx(ctx, tx, obs, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return deviceID, newlyWalked, nil
}

// UpsertDevice reconciles facts onto the canonical row for the facts'
// normalized hostname.
func (s *Store) UpsertDevice(ctx context.Context, facts *domain.DeviceFacts, status domain.DeviceStatus) (int64, bool, error) {
	var (
		deviceID    int64
		newlyWalked bool
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		deviceID, newlyWalked, err = s.upsertDeviceTx(ctx, tx, facts, status)
		return err
	})
	return deviceID, newlyWalked, err
}

// RecordNeighbor ensures both endpoints exist (the destination at least as
// a provisional device) and upserts the canonical undirected link.
func (s *Store) RecordNeighbor(ctx context.Context, obs repository.NeighborObservation) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.recordNeighborTx(ctx, tx, obs, time.Now())
	})
}

// UpsertVlans merges VLAN rows per (device, vlan_id). Rows absent from the
// latest walk are retained; staleness shows through last_seen.
func (s *Store) UpsertVlans(ctx context.Context, deviceID int64, rows []domain.VlanFact) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.upsertVlansTx(ctx, tx, deviceID, rows, time.Now())
	})
}

// UpsertStackMembers merges stack member rows per (device, member_number)
func (s *Store) UpsertStackMembers(ctx context.Context, deviceID int64, rows []domain.StackMemberFact) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.upsertStackMembersTx(ctx, tx, deviceID, rows, time.Now())
	})
}

// MarkFailed records that the device exhausted its connection retries this
// run. The status is per-run only: a successful walk on a later run moves
// the row back to active.
func (s *Store) MarkFailed(ctx context.Context, name string) error {
	key := domain.Normalize(name)
	if key == "" {
		return ErrMissingHostname
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM devices WHERE key = ?`, key).Scan(&id)
		switch {
		case err == sql.ErrNoRows:
			now := formatTime(time.Now())
			_, err = tx.ExecContext(ctx, `
				INSERT INTO devices (key, hostname, status, first_seen, last_seen)
				VALUES (?, ?, ?, ?, ?)
			`, key, domain.ShortName(name), domain.DeviceStatusFailed, now, now)
			return err
		case err != nil:
			return fmt.Errorf("look up device %s: %w", key, err)
		}

		_, err = tx.ExecContext(ctx, `UPDATE devices SET status = ? WHERE id = ?`,
			domain.DeviceStatusFailed, id)
		return err
	})
}

// upsertDeviceTx is the merge core. No existing row: insert. Existing
// provisional row: upgrade in place, attaching all facts. Existing
// canonical row: refresh facts and last_seen. A second row for the same
// key is never created.
func (s *Store) upsertDeviceTx(ctx context.Context, tx *sql.Tx, facts *domain.DeviceFacts, status domain.DeviceStatus) (int64, bool, error) {
	key := facts.Key()
	if key == "" {
		return 0, false, ErrMissingHostname
	}

	walked := status == domain.DeviceStatusActive || status == domain.DeviceStatusBoundary
	isStack := facts.IsStack || len(facts.StackMembers) > 0
	now := formatTime(time.Now())

	var (
		id         int64
		prevSerial string
		prevStatus string
	)
	err := tx.QueryRowContext(ctx, `
		SELECT id, serial_number, status FROM devices WHERE key = ?
	`, key).Scan(&id, &prevSerial, &prevStatus)

	if err == sql.ErrNoRows {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO devices (key, hostname, serial_number, platform, hardware_model,
				software_version, capabilities, is_stack, status, first_seen, last_seen)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, key, domain.ShortName(facts.Hostname), facts.SerialNumber, facts.Platform,
			facts.HardwareModel, facts.SoftwareVersion, marshalStrings(facts.Capabilities),
			isStack, status, now, now)
		if err != nil {
			return 0, false, fmt.Errorf("insert device %s: %w", key, err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, false, err
		}
		return id, walked, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("look up device %s: %w", key, err)
	}

	if prevSerial != "" && facts.SerialNumber != "" && prevSerial != facts.SerialNumber {
		// Reconciliation conflict: stable hostname, different chassis.
		// Newer facts win on the canonical row.
		s.log.Warn().
			Str("device", string(key)).
			Str("old_serial", prevSerial).
			Str("new_serial", facts.SerialNumber).
			Msg("serial number changed for known device")
	}

	// Empty fields in partial facts never erase previously known values
	_, err = tx.ExecContext(ctx, `
		UPDATE devices SET
			hostname = CASE WHEN ? != '' THEN ? ELSE hostname END,
			serial_number = CASE WHEN ? != '' THEN ? ELSE serial_number END,
			platform = CASE WHEN ? != '' THEN ? ELSE platform END,
			hardware_model = CASE WHEN ? != '' THEN ? ELSE hardware_model END,
			software_version = CASE WHEN ? != '' THEN ? ELSE software_version END,
			capabilities = CASE WHEN ? != '[]' THEN ? ELSE capabilities END,
			is_stack = ?,
			status = ?,
			last_seen = ?
		WHERE id = ?
	`,
		domain.ShortName(facts.Hostname), domain.ShortName(facts.Hostname),
		facts.SerialNumber, facts.SerialNumber,
		facts.Platform, facts.Platform,
		facts.HardwareModel, facts.HardwareModel,
		facts.SoftwareVersion, facts.SoftwareVersion,
		marshalStrings(facts.Capabilities), marshalStrings(facts.Capabilities),
		isStack, status, now, id)
	if err != nil {
		return 0, false, fmt.Errorf("update device %s: %w", key, err)
	}

	newlyWalked := walked && domain.DeviceStatus(prevStatus) == domain.DeviceStatusProvisional
	return id, newlyWalked, nil
}

// ensureDeviceTx guarantees a device row exists for name, inserting a
// minimal provisional row if absent, and returns its id. An existing row
// is left untouched: a neighbor mention never downgrades walked facts.
func (s *Store) ensureDeviceTx(ctx context.Context, tx *sql.Tx, name, platform string, capabilities []string, now time.Time) (int64, error) {
	key := domain.Normalize(name)
	if key == "" {
		return 0, ErrMissingHostname
	}

	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM devices WHERE key = ?`, key).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("look up device %s: %w", key, err)
	}

	ts := formatTime(now)
	res, err := tx.ExecContext(ctx, `
		INSERT INTO devices (key, hostname, platform, capabilities, status, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, key, domain.ShortName(name), platform, marshalStrings(capabilities),
		domain.DeviceStatusProvisional, ts, ts)
	if err != nil {
		return 0, fmt.Errorf("insert provisional device %s: %w", key, err)
	}
	return res.LastInsertId()
}

func (s *Store) recordNeighborTx(ctx context.Context, tx *sql.Tx, obs repository.NeighborObservation, now time.Time) error {
	if _, err := s.ensureDeviceTx(ctx, tx, obs.SrcName, "", nil, now); err != nil {
		return err
	}
	if _, err := s.ensureDeviceTx(ctx, tx, obs.DestName, obs.DestPlatform, obs.DestCapabilities, now); err != nil {
		return err
	}

	low, high := domain.CanonicalLink(
		domain.LinkEndpoint{Key: domain.Normalize(obs.SrcName), If: obs.SrcIf},
		domain.LinkEndpoint{Key: domain.Normalize(obs.DestName), If: obs.DestIf},
	)

	ts := formatTime(now)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO neighbor_links (a_key, a_if, b_key, b_if, protocol, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(a_key, a_if, b_key, b_if) DO UPDATE SET
			protocol = excluded.protocol,
			last_seen = excluded.last_seen
	`, low.Key, low.If, high.Key, high.If, obs.Protocol, ts, ts)
	if err != nil {
		return fmt.Errorf("upsert link %s/%s <-> %s/%s: %w", low.Key, low.If, high.Key, high.If, err)
	}
	return nil
}

func (s *Store) upsertInterfacesTx(ctx context.Context, tx *sql.Tx, deviceID int64, rows []domain.InterfaceFact, now time.Time) error {
	if len(rows) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO interfaces (device_id, name, addresses, type, last_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(device_id, name) DO UPDATE SET
			addresses = excluded.addresses,
			type = excluded.type,
			last_seen = excluded.last_seen
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	ts := formatTime(now)
	for _, row := range rows {
		if row.Name == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, deviceID, row.Name, marshalStrings(row.Addresses), row.Type, ts); err != nil {
			return fmt.Errorf("upsert interface %s: %w", row.Name, err)
		}
	}
	return nil
}

func (s *Store) upsertVlansTx(ctx context.Context, tx *sql.Tx, deviceID int64, rows []domain.VlanFact, now time.Time) error {
	if len(rows) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vlans (device_id, vlan_id, name, port_count, portchannel_count, last_seen)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id, vlan_id) DO UPDATE SET
			name = excluded.name,
			port_count = excluded.port_count,
			portchannel_count = excluded.portchannel_count,
			last_seen = excluded.last_seen
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	ts := formatTime(now)
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, deviceID, row.VlanID, row.Name, row.PortCount, row.PortchannelCount, ts); err != nil {
			return fmt.Errorf("upsert vlan %d: %w", row.VlanID, err)
		}
	}
	return nil
}

func (s *Store) upsertStackMembersTx(ctx context.Context, tx *sql.Tx, deviceID int64, rows []domain.StackMemberFact, now time.Time) error {
	if len(rows) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stack_members (device_id, member_number, serial_number, model, role, priority, state, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id, member_number) DO UPDATE SET
			serial_number = excluded.serial_number,
			model = excluded.model,
			role = excluded.role,
			priority = excluded.priority,
			state = excluded.state,
			last_seen = excluded.last_seen
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	ts := formatTime(now)
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, deviceID, row.MemberNumber, row.SerialNumber, row.Model, row.Role, row.Priority, row.State, ts); err != nil {
			return fmt.Errorf("upsert stack member %d: %w", row.MemberNumber, err)
		}
	}
	return nil
}
