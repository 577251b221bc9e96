package validation

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string  { return &s }
func f64(v float64) *float64 { return &v }
func item(name string, q, p float64) ItemInput {
	return ItemInput{ItemName: name, Quantity: f64(q), PricePerItem: f64(p)}
}

func validCreate() AssetInput {
	return AssetInput{
		Type:         strp("capital"),
		DepartmentID: strp("64b7f0c2a1b2c3d4e5f60718"),
		AcademicYear: strp("2024-25"),
		Items:        []ItemInput{item("Projector", 2, 100)},
	}
}

func firstMessage(t *testing.T, err error) string {
	t.Helper()
	var ve Errors
	require.True(t, errors.As(err, &ve), "expected validation.Errors, got %v", err)
	require.NotEmpty(t, ve)
	return ve[0].Message
}

func TestValidateAssetCreate_Valid(t *testing.T) {
	in := validCreate()
	in.Items[0].TotalAmount = f64(1)
	in.GrandTotal = f64(9999)
	in.Items[0].BillDate = strp("2024-07-01")

	asset, err := ValidateAssetCreate(in)
	require.NoError(t, err)
	assert.Equal(t, "capital", asset.Type)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", asset.DepartmentID.Hex())
	require.Len(t, asset.Items, 1)
	assert.Equal(t, 2, asset.Items[0].Quantity)
	assert.Zero(t, asset.Items[0].TotalAmount)
	assert.Zero(t, asset.GrandTotal)
	require.NotNil(t, asset.Items[0].BillDate)
	assert.Equal(t, 2024, asset.Items[0].BillDate.Year())
}

func TestValidateAssetCreate_AcademicYearFormat(t *testing.T) {
	for _, y := range []string{"2024", "2024-2025", "24-25", "2024/25", "abcd-ef"} {
		in := validCreate()
		in.AcademicYear = strp(y)
		_, err := ValidateAssetCreate(in)
		require.Error(t, err, y)
		assert.Equal(t, "academicYear must be in format YYYY-YY", firstMessage(t, err), y)
	}
}

func TestValidateAssetCreate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AssetInput)
		field  string
	}{
		{"missing type", func(a *AssetInput) { a.Type = nil }, "type"},
		{"bad type", func(a *AssetInput) { a.Type = strp("opex") }, "type"},
		{"bad department", func(a *AssetInput) { a.DepartmentID = strp("xyz") }, "departmentId"},
		{"missing items", func(a *AssetInput) { a.Items = nil }, "items"},
		{"empty items", func(a *AssetInput) { a.Items = []ItemInput{} }, "items"},
		{"zero quantity", func(a *AssetInput) { a.Items[0].Quantity = f64(0) }, "items[0].quantity"},
		{"fractional quantity", func(a *AssetInput) { a.Items[0].Quantity = f64(1.5) }, "items[0].quantity"},
		{"negative price", func(a *AssetInput) { a.Items[0].PricePerItem = f64(-1) }, "items[0].pricePerItem"},
		{"blank item name", func(a *AssetInput) { a.Items[0].ItemName = "  " }, "items[0].itemName"},
		{"bad email", func(a *AssetInput) { a.Items[0].Email = "not-an-email" }, "items[0].email"},
		{"bad url", func(a *AssetInput) { a.Items[0].BillFileURL = "bills/1.pdf" }, "items[0].billFileUrl"},
		{"bad date", func(a *AssetInput) { a.Items[0].BillDate = strp("01/07/2024") }, "items[0].billDate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validCreate()
			tt.mutate(&in)
			_, err := ValidateAssetCreate(in)
			var ve Errors
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve[0].Field)
		})
	}
}

func TestValidateAssetCreate_ZeroPriceAllowed(t *testing.T) {
	in := validCreate()
	in.Items[0].PricePerItem = f64(0)
	_, err := ValidateAssetCreate(in)
	assert.NoError(t, err)
}

func TestValidateAssetUpdate(t *testing.T) {
	_, err := ValidateAssetUpdate(AssetInput{})
	assert.Equal(t, "at least one field must be provided", firstMessage(t, err))

	patch, err := ValidateAssetUpdate(AssetInput{Subcategory: strp(" lab ")})
	require.NoError(t, err)
	assert.Equal(t, "lab", *patch.Subcategory)
	assert.Nil(t, patch.Items)

	_, err = ValidateAssetUpdate(AssetInput{AcademicYear: strp("2024")})
	assert.Equal(t, "academicYear must be in format YYYY-YY", firstMessage(t, err))

	patch, err = ValidateAssetUpdate(AssetInput{Items: []ItemInput{item("Chair", 4, 25)}})
	require.NoError(t, err)
	assert.Len(t, patch.Items, 1)
}

func TestValidateAssetQuery(t *testing.T) {
	q, err := ValidateAssetQuery(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 10, q.Limit)

	q, err = ValidateAssetQuery(url.Values{"page": {"3"}, "limit": {"100"}, "type": {"revenue"}, "search": {" lab "}})
	require.NoError(t, err)
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 100, q.Limit)
	assert.Equal(t, "revenue", q.Type)
	assert.Equal(t, "lab", q.Search)

	for _, bad := range []url.Values{
		{"page": {"0"}},
		{"page": {"99999999999999999"}},
		{"page": {"1000001"}},
		{"limit": {"101"}},
		{"limit": {"abc"}},
		{"type": {"other"}},
		{"departmentId": {"123"}},
		{"academicYear": {"2024"}},
	} {
		_, err := ValidateAssetQuery(bad)
		assert.Error(t, err, bad.Encode())
	}

	q, err = ValidateAssetQuery(url.Values{"page": {"1000000"}, "limit": {"100"}})
	require.NoError(t, err)
	assert.Equal(t, MaxPage, q.Page)
}

func TestValidateReportQuery(t *testing.T) {
	_, err := ValidateReportQuery(url.Values{})
	assert.Equal(t, "groupBy is required", firstMessage(t, err))

	_, err = ValidateReportQuery(url.Values{"groupBy": {"month"}})
	assert.Error(t, err)

	q, err := ValidateReportQuery(url.Values{"groupBy": {"vendor"}, "academicYear": {"2023-24"}, "itemName": {"Laptop"}})
	require.NoError(t, err)
	assert.Equal(t, "vendor", q.GroupBy)
	assert.Equal(t, "2023-24", q.AcademicYear)
	assert.Equal(t, "Laptop", q.ItemName)
}

func TestValidateDepartment(t *testing.T) {
	d, err := ValidateDepartment(DepartmentInput{Name: "  Library ", Type: "service"})
	require.NoError(t, err)
	assert.Equal(t, "Library", d.Name)

	_, err = ValidateDepartment(DepartmentInput{Name: "X", Type: "service"})
	assert.Error(t, err)
	_, err = ValidateDepartment(DepartmentInput{Name: "Library", Type: "other"})
	assert.Error(t, err)
}

func TestValidateVendor(t *testing.T) {
	v, err := ValidateVendor(VendorInput{Name: "Acme", Email: "Sales@Acme.com"})
	require.NoError(t, err)
	assert.Equal(t, "sales@acme.com", v.Email)

	_, err = ValidateVendor(VendorInput{Name: "Acme"})
	assert.Equal(t, "email is required", firstMessage(t, err))
}

func TestValidateRegisterAndLogin(t *testing.T) {
	r, err := ValidateRegister(RegisterInput{Name: "Asha", Email: "ASHA@college.edu", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "officer", r.Role)
	assert.Equal(t, "asha@college.edu", r.Email)

	_, err = ValidateRegister(RegisterInput{Name: "Asha", Email: "asha@college.edu", Password: "123"})
	assert.Error(t, err)
	_, err = ValidateRegister(RegisterInput{Name: "Asha", Email: "asha@college.edu", Password: "secret1", Role: "root"})
	assert.Error(t, err)

	_, err = ValidateLogin(LoginInput{Email: "asha@college.edu"})
	assert.Equal(t, "password is required", firstMessage(t, err))
}
