package shopsettings

// DefaultShopName is printed when no shop name is configured.
const DefaultShopName = "Boutique del Gelato"

// ShopSettings holds the shop details printed on receipts.
type ShopSettings struct {
	ShopName    string `json:"shopName"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
	PrinterIP   string `json:"printerIp,omitempty"`
	PrinterName string `json:"printerName,omitempty"`
}

// DisplayName returns the shop name or the default one if it is empty.
func (s ShopSettings) DisplayName() string {
	if s.ShopName == "" {
		return DefaultShopName
	}

	return s.ShopName
}
