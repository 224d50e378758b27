package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/platinummonkey/janus/pkg/observability"
)

// Directory performs administrative operations against the provider's
// user management API. Every call acquires the cached admin token from
// the client first.
//
// The provider's per-identity record is a shared mutable resource with
// no locking available to this service; read-modify-write updates like
// SetEnabled are last-writer-wins against concurrent external changes.
type Directory struct {
	client *Client
	logger *observability.Logger
}

// NewDirectory creates a directory adapter on top of a token client
func NewDirectory(client *Client, logger *observability.Logger) *Directory {
	return &Directory{client: client, logger: logger}
}

// CreateIdentity creates a new identity in the provider and returns
// the provider-assigned subject identifier, extracted from the
// creation response's Location header. When roles are given they are
// assigned after creation.
func (d *Directory) CreateIdentity(ctx context.Context, identity NewIdentity) (string, error) {
	payload := map[string]interface{}{
		"username":  identity.Username,
		"email":     identity.Email,
		"firstName": identity.FirstName,
		"lastName":  identity.LastName,
		"enabled":   identity.Enabled,
		"credentials": []map[string]interface{}{
			{
				"type":      "password",
				"value":     identity.Password,
				"temporary": false,
			},
		},
	}

	resp, err := d.do(ctx, http.MethodPost, d.client.cfg.AdminURL()+"/users", payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return "", fmt.Errorf("%w: %s", ErrExists, identity.Username)
	}
	if resp.StatusCode != http.StatusCreated {
		return "", d.statusError("create identity", resp)
	}

	location := resp.Header.Get("Location")
	id := location[strings.LastIndex(location, "/")+1:]
	if id == "" {
		return "", fmt.Errorf("%w: creation response carried no identity location", ErrDirectory)
	}

	if len(identity.Roles) > 0 {
		if _, err := d.AssignRoles(ctx, id, identity.Roles); err != nil {
			return "", err
		}
	}

	d.logger.WithField("external_id", id).Info("identity created in directory")
	return id, nil
}

// GetIdentity fetches the provider's record for an identity
func (d *Directory) GetIdentity(ctx context.Context, externalID string) (*IdentityRecord, error) {
	resp, err := d.do(ctx, http.MethodGet, d.client.cfg.AdminURL()+"/users/"+externalID, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: identity %s", ErrNotFound, externalID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, d.statusError("get identity", resp)
	}

	var record IdentityRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("%w: decoding identity: %v", ErrDirectory, err)
	}
	return &record, nil
}

// UpdateIdentity changes identity-owned fields (username, email,
// names) in the provider. Application-specific fields never travel
// through here.
func (d *Directory) UpdateIdentity(ctx context.Context, externalID string, update IdentityUpdate) error {
	payload := map[string]interface{}{}
	if update.Username != nil {
		payload["username"] = *update.Username
	}
	if update.Email != nil {
		payload["email"] = *update.Email
	}
	if update.FirstName != nil {
		payload["firstName"] = *update.FirstName
	}
	if update.LastName != nil {
		payload["lastName"] = *update.LastName
	}
	if len(payload) == 0 {
		return nil
	}

	resp, err := d.do(ctx, http.MethodPut, d.client.cfg.AdminURL()+"/users/"+externalID, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: identity %s", ErrNotFound, externalID)
	}
	if resp.StatusCode >= 300 {
		return d.statusError("update identity", resp)
	}
	return nil
}

// SetEnabled flips the enabled flag on an identity. The provider's
// update endpoint expects a complete representation, so the current
// record is fetched and merged before writing; concurrent updates to
// the same identity are last-writer-wins.
func (d *Directory) SetEnabled(ctx context.Context, externalID string, enabled bool) error {
	resp, err := d.do(ctx, http.MethodGet, d.client.cfg.AdminURL()+"/users/"+externalID, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return fmt.Errorf("%w: identity %s", ErrNotFound, externalID)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return d.statusError("fetch identity for status update", resp)
	}

	var record map[string]interface{}
	err = json.NewDecoder(resp.Body).Decode(&record)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("%w: decoding identity: %v", ErrDirectory, err)
	}

	record["enabled"] = enabled

	putResp, err := d.do(ctx, http.MethodPut, d.client.cfg.AdminURL()+"/users/"+externalID, record)
	if err != nil {
		return err
	}
	defer putResp.Body.Close()

	if putResp.StatusCode >= 300 {
		return d.statusError("update identity status", putResp)
	}
	return nil
}

// SetPassword sets a permanent password on an identity. No forced
// reset flow is triggered.
func (d *Directory) SetPassword(ctx context.Context, externalID, password string) error {
	payload := map[string]interface{}{
		"type":      "password",
		"value":     password,
		"temporary": false,
	}

	resp, err := d.do(ctx, http.MethodPut, d.client.cfg.AdminURL()+"/users/"+externalID+"/reset-password", payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: identity %s", ErrNotFound, externalID)
	}
	if resp.StatusCode >= 300 {
		return d.statusError("set password", resp)
	}
	return nil
}

// ListRoles fetches the realm's full role catalog
func (d *Directory) ListRoles(ctx context.Context) ([]Role, error) {
	resp, err := d.do(ctx, http.MethodGet, d.client.cfg.AdminURL()+"/roles", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, d.statusError("list roles", resp)
	}

	var roles []Role
	if err := json.NewDecoder(resp.Body).Decode(&roles); err != nil {
		return nil, fmt.Errorf("%w: decoding roles: %v", ErrDirectory, err)
	}
	return roles, nil
}

// GetRole fetches a single realm role by name
func (d *Directory) GetRole(ctx context.Context, name string) (*Role, error) {
	resp, err := d.do(ctx, http.MethodGet, d.client.cfg.AdminURL()+"/roles/"+name, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: role %s", ErrNotFound, name)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, d.statusError("get role", resp)
	}

	var role Role
	if err := json.NewDecoder(resp.Body).Decode(&role); err != nil {
		return nil, fmt.Errorf("%w: decoding role: %v", ErrDirectory, err)
	}
	return &role, nil
}

// AssignRoles adds realm roles to an identity. Requested names are
// filtered against the realm catalog; unknown names are dropped and
// an entirely unknown set fails with ErrNoValidRoles. Assignment is
// additive and never revokes roles not mentioned.
func (d *Directory) AssignRoles(ctx context.Context, externalID string, roleNames []string) ([]string, error) {
	catalog, err := d.ListRoles(ctx)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]Role, len(catalog))
	for _, role := range catalog {
		byName[role.Name] = role
	}

	var (
		valid    []string
		mappings []map[string]string
	)
	for _, name := range roleNames {
		if role, ok := byName[name]; ok {
			valid = append(valid, role.Name)
			mappings = append(mappings, map[string]string{"id": role.ID, "name": role.Name})
		}
	}

	if len(valid) == 0 {
		return nil, ErrNoValidRoles
	}

	resp, err := d.do(ctx, http.MethodPost, d.client.cfg.AdminURL()+"/users/"+externalID+"/role-mappings/realm", mappings)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: identity %s", ErrNotFound, externalID)
	}
	if resp.StatusCode >= 300 {
		return nil, d.statusError("assign roles", resp)
	}

	return valid, nil
}

// do issues an admin-authenticated request with an optional JSON body
func (d *Directory) do(ctx context.Context, method, url string, body interface{}) (*http.Response, error) {
	token, err := d.client.AdminToken(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding request: %v", ErrDirectory, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrDirectory, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := d.client.httpClient.Do(req)
	d.client.observe("directory "+method, start, err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectory, err)
	}
	return resp, nil
}

// statusError drains the response body into a directory error
func (d *Directory) statusError(operation string, resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%w: %s returned %d: %s", ErrDirectory, operation, resp.StatusCode, strings.TrimSpace(string(detail)))
}
