package models

import "strings"

// Company is the singleton business profile printed on invoices.
type Company struct {
	ID            ID      `json:"id"`
	Name          string  `json:"name"`
	Address       string  `json:"address"`
	Gst           *string `json:"gst"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	Website       *string `json:"website"`
	BankName      *string `json:"bankName"`
	AccountNumber *string `json:"accountNumber"`
	IfscCode      *string `json:"ifscCode"`
	UpiId         *string `json:"upiId"`
	LogoUrl       *string `json:"logoUrl"`
	QrCodeUrl     *string `json:"qrCodeUrl"`
	PaymentTerms  *string `json:"paymentTerms"`
}

// NewCompany is the upsert payload. Absent fields keep their stored value,
// explicit nulls and blank strings clear them.
type NewCompany struct {
	Name          Optional[string] `json:"name"`
	Address       Optional[string] `json:"address"`
	Gst           Optional[string] `json:"gst"`
	Phone         Optional[string] `json:"phone"`
	Email         Optional[string] `json:"email"`
	Website       Optional[string] `json:"website"`
	BankName      Optional[string] `json:"bankName"`
	AccountNumber Optional[string] `json:"accountNumber"`
	IfscCode      Optional[string] `json:"ifscCode"`
	// older clients send "ifsc"
	Ifsc         Optional[string] `json:"ifsc"`
	UpiId        Optional[string] `json:"upiId"`
	LogoUrl      Optional[string] `json:"logoUrl"`
	QrCodeUrl    Optional[string] `json:"qrCodeUrl"`
	PaymentTerms Optional[string] `json:"paymentTerms"`
}

func (c *Company) Clone() *Company {
	if c == nil {
		return nil
	}
	out := *c
	for _, p := range []**string{&out.Gst, &out.Phone, &out.Email, &out.Website, &out.BankName,
		&out.AccountNumber, &out.IfscCode, &out.UpiId, &out.LogoUrl, &out.QrCodeUrl, &out.PaymentTerms} {
		if *p != nil {
			v := **p
			*p = &v
		}
	}
	return &out
}

// Merge applies input over current (nil before the first upsert) and validates the result.
// current is not modified.
func (input *NewCompany) Merge(current *Company) (*Company, error) {
	if input == nil {
		return nil, NewValidationError("", "company is required")
	}
	out := &Company{}
	if current != nil {
		out = current.Clone()
	}
	if input.Name.Set {
		out.Name = strings.TrimSpace(input.Name.Value)
	}
	if input.Address.Set {
		out.Address = strings.TrimSpace(input.Address.Value)
	}
	if out.Name == "" {
		return nil, NewValidationError("name", "is required")
	}
	if out.Address == "" {
		return nil, NewValidationError("address", "is required")
	}
	ifsc := input.IfscCode
	if !ifsc.Set {
		ifsc = input.Ifsc
	}
	out.Gst = MergeString(out.Gst, input.Gst)
	out.Phone = MergeString(out.Phone, input.Phone)
	out.Email = MergeString(out.Email, input.Email)
	out.Website = MergeString(out.Website, input.Website)
	out.BankName = MergeString(out.BankName, input.BankName)
	out.AccountNumber = MergeString(out.AccountNumber, input.AccountNumber)
	out.IfscCode = MergeString(out.IfscCode, ifsc)
	out.UpiId = MergeString(out.UpiId, input.UpiId)
	out.LogoUrl = MergeString(out.LogoUrl, input.LogoUrl)
	out.QrCodeUrl = MergeString(out.QrCodeUrl, input.QrCodeUrl)
	out.PaymentTerms = MergeString(out.PaymentTerms, input.PaymentTerms)
	return out, nil
}

// Changes returns only the fields input sets, keyed by JSON name, holding the
// values Merge would store. A nil value clears the field. Name and address may
// be omitted but never cleared.
func (input *NewCompany) Changes() (map[string]*string, error) {
	if input == nil {
		return nil, NewValidationError("", "company is required")
	}
	changes := map[string]*string{}
	for _, f := range []struct {
		field string
		value Optional[string]
	}{{"name", input.Name}, {"address", input.Address}} {
		if !f.value.Set {
			continue
		}
		v := StringPtr(f.value)
		if v == nil {
			return nil, NewValidationError(f.field, "is required")
		}
		changes[f.field] = v
	}
	ifsc := input.IfscCode
	if !ifsc.Set {
		ifsc = input.Ifsc
	}
	for field, o := range map[string]Optional[string]{
		"gst":           input.Gst,
		"phone":         input.Phone,
		"email":         input.Email,
		"website":       input.Website,
		"bankName":      input.BankName,
		"accountNumber": input.AccountNumber,
		"ifscCode":      ifsc,
		"upiId":         input.UpiId,
		"logoUrl":       input.LogoUrl,
		"qrCodeUrl":     input.QrCodeUrl,
		"paymentTerms":  input.PaymentTerms,
	} {
		if o.Set {
			changes[field] = StringPtr(o)
		}
	}
	return changes, nil
}
