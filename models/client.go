package models

import (
	"strings"
	"time"
)

type Client struct {
	ID          ID        `json:"id"`
	Name        string    `json:"name"`
	CompanyName *string   `json:"companyName"`
	ServiceName *string   `json:"serviceName"`
	Address     *string   `json:"address"`
	Phone       *string   `json:"phone"`
	Email       *string   `json:"email"`
	Gst         *string   `json:"gst"`
	LogoUrl     *string   `json:"logoUrl"`
	CustomId    *string   `json:"customId"`
	CreatedAt   time.Time `json:"createdAt"`
	// Invoices is the back-reference list kept by backends that store one.
	Invoices []ID `json:"invoices,omitempty"`
}

type NewClient struct {
	Name        string  `json:"name" validate:"required"`
	CompanyName *string `json:"companyName"`
	ServiceName *string `json:"serviceName"`
	Address     *string `json:"address"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
	Gst         *string `json:"gst"`
	LogoUrl     *string `json:"logoUrl"`
}

// ClientUpdate is a partial update; absent fields are left untouched.
type ClientUpdate struct {
	Name        Optional[string] `json:"name"`
	CompanyName Optional[string] `json:"companyName"`
	ServiceName Optional[string] `json:"serviceName"`
	Address     Optional[string] `json:"address"`
	Phone       Optional[string] `json:"phone"`
	Email       Optional[string] `json:"email"`
	Gst         Optional[string] `json:"gst"`
	LogoUrl     Optional[string] `json:"logoUrl"`
}

func (c *Client) Clone() *Client {
	if c == nil {
		return nil
	}
	out := *c
	for _, p := range []**string{&out.CompanyName, &out.ServiceName, &out.Address, &out.Phone,
		&out.Email, &out.Gst, &out.LogoUrl, &out.CustomId} {
		if *p != nil {
			v := **p
			*p = &v
		}
	}
	if c.Invoices != nil {
		out.Invoices = append([]ID(nil), c.Invoices...)
	}
	return &out
}

// Build validates the input. Id and customId are assigned by the backend.
func (input *NewClient) Build(now time.Time) (*Client, error) {
	if input == nil {
		return nil, NewValidationError("", "client is required")
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := ValidateStruct(input); err != nil {
		return nil, err
	}
	return &Client{
		Name:        input.Name,
		CompanyName: NormalizeString(input.CompanyName),
		ServiceName: NormalizeString(input.ServiceName),
		Address:     NormalizeString(input.Address),
		Phone:       NormalizeString(input.Phone),
		Email:       NormalizeString(input.Email),
		Gst:         NormalizeString(input.Gst),
		LogoUrl:     NormalizeString(input.LogoUrl),
		CreatedAt:   now,
	}, nil
}

func (update *ClientUpdate) Validate() error {
	if update == nil {
		return nil
	}
	if update.Name.Set && strings.TrimSpace(update.Name.Value) == "" {
		return NewValidationError("name", "is required")
	}
	return nil
}

// IsEmpty reports whether the update carries no fields.
func (update *ClientUpdate) IsEmpty() bool {
	if update == nil {
		return true
	}
	return !update.Name.Set && !update.CompanyName.Set && !update.ServiceName.Set && !update.Address.Set &&
		!update.Phone.Set && !update.Email.Set && !update.Gst.Set && !update.LogoUrl.Set
}

// Apply merges update into c. Call Validate first.
func (c *Client) Apply(update *ClientUpdate) {
	if update == nil {
		return
	}
	if update.Name.Set {
		c.Name = strings.TrimSpace(update.Name.Value)
	}
	c.CompanyName = MergeString(c.CompanyName, update.CompanyName)
	c.ServiceName = MergeString(c.ServiceName, update.ServiceName)
	c.Address = MergeString(c.Address, update.Address)
	c.Phone = MergeString(c.Phone, update.Phone)
	c.Email = MergeString(c.Email, update.Email)
	c.Gst = MergeString(c.Gst, update.Gst)
	c.LogoUrl = MergeString(c.LogoUrl, update.LogoUrl)
}

// Columns returns the changed columns of update keyed by snake_case column name, for Updates(map).
func (update *ClientUpdate) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if update == nil {
		return cols
	}
	if update.Name.Set {
		cols["name"] = strings.TrimSpace(update.Name.Value)
	}
	for col, o := range map[string]Optional[string]{
		"company_name": update.CompanyName,
		"service_name": update.ServiceName,
		"address":      update.Address,
		"phone":        update.Phone,
		"email":        update.Email,
		"gst":          update.Gst,
		"logo_url":     update.LogoUrl,
	} {
		if o.Set {
			cols[col] = StringPtr(o)
		}
	}
	return cols
}
