package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"netwalker/internal/domain"
	"netwalker/internal/repository"
)

const deviceColumns = `id, key, hostname, serial_number, platform, hardware_model,
	software_version, capabilities, is_stack, status, first_seen, last_seen`

func scanDevice(row interface{ Scan(...any) error }) (domain.Device, error) {
	var (
		d                   domain.Device
		key, status         string
		capabilities        string
		firstSeen, lastSeen string
	)
	err := row.Scan(&d.ID, &key, &d.Hostname, &d.SerialNumber, &d.Platform,
		&d.HardwareModel, &d.SoftwareVersion, &capabilities, &d.IsStack,
		&status, &firstSeen, &lastSeen)
	if err != nil {
		return d, err
	}
	d.Key = domain.Key(key)
	d.Status = domain.DeviceStatus(status)
	d.Capabilities = unmarshalStrings(capabilities)
	d.FirstSeen = parseTime(firstSeen)
	d.LastSeen = parseTime(lastSeen)
	return d, nil
}

// GetDevice returns the canonical row for key, or nil if unknown
func (s *Store) GetDevice(ctx context.Context, key domain.Key) (*domain.Device, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE key = ?`, key)

	d, err := scanDevice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query device %s: %w", key, err)
	}
	return &d, nil
}

// ListDevices returns devices matching the filter, ordered by key
func (s *Store) ListDevices(ctx context.Context, filter repository.DeviceFilter) ([]domain.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE 1=1`
	args := []any{}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Platform != "" {
		query += ` AND platform = ?`
		args = append(args, filter.Platform)
	}
	query += ` ORDER BY key`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	defer rows.Close()

	var devices []domain.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// ListLinks returns every canonical undirected link
func (s *Store) ListLinks(ctx context.Context) ([]domain.NeighborLink, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, a_key, a_if, b_key, b_if, protocol, first_seen, last_seen
		FROM neighbor_links ORDER BY a_key, a_if
	`)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var links []domain.NeighborLink
	for rows.Next() {
		var (
			l                   domain.NeighborLink
			aKey, bKey          string
			firstSeen, lastSeen string
		)
		if err := rows.Scan(&l.ID, &aKey, &l.AIf, &bKey, &l.BIf, &l.Protocol, &firstSeen, &lastSeen); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		l.AKey = domain.Key(aKey)
		l.BKey = domain.Key(bKey)
		l.FirstSeen = parseTime(firstSeen)
		l.LastSeen = parseTime(lastSeen)
		links = append(links, l)
	}
	return links, rows.Err()
}

// ListInterfaces returns the interfaces owned by the device with key
func (s *Store) ListInterfaces(ctx context.Context, key domain.Key) ([]domain.Interface, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.device_id, i.name, i.addresses, i.type
		FROM interfaces i JOIN devices d ON d.id = i.device_id
		WHERE d.key = ? ORDER BY i.name
	`, key)
	if err != nil {
		return nil, fmt.Errorf("query interfaces: %w", err)
	}
	defer rows.Close()

	var ifaces []domain.Interface
	for rows.Next() {
		var (
			iface     domain.Interface
			addresses string
		)
		if err := rows.Scan(&iface.DeviceID, &iface.Name, &addresses, &iface.Type); err != nil {
			return nil, fmt.Errorf("scan interface: %w", err)
		}
		iface.Addresses = unmarshalStrings(addresses)
		ifaces = append(ifaces, iface)
	}
	return ifaces, rows.Err()
}

// ListVlans returns the VLANs owned by the device with key
func (s *Store) ListVlans(ctx context.Context, key domain.Key) ([]domain.Vlan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.device_id, v.vlan_id, v.name, v.port_count, v.portchannel_count, v.last_seen
		FROM vlans v JOIN devices d ON d.id = v.device_id
		WHERE d.key = ? ORDER BY v.vlan_id
	`, key)
	if err != nil {
		return nil, fmt.Errorf("query vlans: %w", err)
	}
	defer rows.Close()

	var vlans []domain.Vlan
	for rows.Next() {
		var (
			v        domain.Vlan
			lastSeen string
		)
		if err := rows.Scan(&v.DeviceID, &v.VlanID, &v.Name, &v.PortCount, &v.PortchannelCount, &lastSeen); err != nil {
			return nil, fmt.Errorf("scan vlan: %w", err)
		}
		v.LastSeen = parseTime(lastSeen)
		vlans = append(vlans, v)
	}
	return vlans, rows.Err()
}

// ListStackMembers returns the stack members of the device with key
func (s *Store) ListStackMembers(ctx context.Context, key domain.Key) ([]domain.StackMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.device_id, m.member_number, m.serial_number, m.model, m.role, m.priority, m.state, m.last_seen
		FROM stack_members m JOIN devices d ON d.id = m.device_id
		WHERE d.key = ? ORDER BY m.member_number
	`, key)
	if err != nil {
		return nil, fmt.Errorf("query stack members: %w", err)
	}
	defer rows.Close()

	var members []domain.StackMember
	for rows.Next() {
		var (
			m        domain.StackMember
			role     string
			lastSeen string
		)
		if err := rows.Scan(&m.DeviceID, &m.MemberNumber, &m.SerialNumber, &m.Model, &role, &m.Priority, &m.State, &lastSeen); err != nil {
			return nil, fmt.Errorf("scan stack member: %w", err)
		}
		m.Role = domain.StackMemberRole(role)
		m.LastSeen = parseTime(lastSeen)
		members = append(members, m)
	}
	return members, rows.Err()
}
