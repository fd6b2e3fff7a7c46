// Package agency provides the HTTP client for the travel agency REST backend.
// All wizard reference data and the final sale submission go through this
// fixed API surface; the caller's bearer token is forwarded opaquely.
package agency

// Passenger is the agency projection of a client record. List endpoints may
// omit the DNI; only the detail endpoint is authoritative.
type Passenger struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Surname        string `json:"surname"`
	DNI            string `json:"dni"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	PassportNumber string `json:"passportNumber,omitempty"`
	IsMainClient   bool   `json:"isMainClient,omitempty"`
}

// Provider is a third-party supplier candidate.
type Provider struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	TaxID  string `json:"taxId,omitempty"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Active bool   `json:"active,omitempty"`
}

// ServiceTemplate is a selectable catalog entry for the wizard.
type ServiceTemplate struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// City is a destination autocomplete result.
type City struct {
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
}

// Country is a destination autocomplete result.
type Country struct {
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// Cupo is the inventory block snapshot fetched at wizard entry.
type Cupo struct {
	ID             string `json:"id"`
	ServiceName    string `json:"serviceName,omitempty"`
	TotalSeats     int    `json:"totalSeats,omitempty"`
	AvailableSeats int    `json:"availableSeats"`
}

// DocumentRef is the stored reference returned by the upload endpoint.
type DocumentRef struct {
	ID       string `json:"id"`
	URL      string `json:"url,omitempty"`
	FileName string `json:"fileName"`
}

// SalePassenger is one traveler inside the sale payload.
type SalePassenger struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	DNI     string `json:"dni"`
}

// SaleProvider is one provider assignment inside the sale payload, with the
// uploaded document references nested under it.
type SaleProvider struct {
	ProviderID string        `json:"providerId"`
	IsDefault  bool          `json:"isDefault"`
	Documents  []DocumentRef `json:"documents,omitempty"`
}

// SaleService is one configured service instance inside the sale payload.
type SaleService struct {
	TemplateID         string         `json:"templateId"`
	ServiceInfo        string         `json:"serviceInfo"`
	CheckIn            string         `json:"checkIn"`
	CheckOut           string         `json:"checkOut"`
	DestinationCity    string         `json:"destinationCity"`
	DestinationCountry string         `json:"destinationCountry"`
	OriginalAmount     float64        `json:"originalAmount"`
	OriginalCurrency   string         `json:"originalCurrency"`
	ExchangeRate       float64        `json:"exchangeRate,omitempty"`
	BaseAmount         float64        `json:"baseAmount"`
	Providers          []SaleProvider `json:"providers"`
}

// SalePayload is the composite submission assembled on the final step.
type SalePayload struct {
	PrimaryClientID    string          `json:"clientId"`
	Passengers         []SalePassenger `json:"passengers"`
	DestinationCity    string          `json:"destinationCity"`
	DestinationCountry string          `json:"destinationCountry"`
	PriceOriginal      float64         `json:"pricePerPassenger"`
	PriceCurrency      string          `json:"priceCurrency"`
	PriceExchangeRate  float64         `json:"priceExchangeRate,omitempty"`
	PriceBase          float64         `json:"pricePerPassengerUsd"`
	SaleCurrency       string          `json:"saleCurrency"`
	SaleExchangeRate   float64         `json:"saleExchangeRate,omitempty"`
	CupoID             string          `json:"cupoId,omitempty"`
	Services           []SaleService   `json:"services"`
}

// SaleRef identifies the created or updated sale.
type SaleRef struct {
	ID string `json:"id"`
}
