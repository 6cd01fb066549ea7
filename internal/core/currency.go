package core

import "slices"

type (
	Currency string
	Language string
)

const (
	DefaultCurrency Currency = "SOS"
	DefaultLanguage Language = "en"

	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
)

// CurrencyInfo describes how a currency is presented.
type CurrencyInfo struct {
	Code     Currency
	Symbol   string
	Name     string
	Decimals int32
}

var currencies = []CurrencyInfo{
	{Code: "INR", Symbol: "₹", Name: "Indian Rupee", Decimals: 2},
	{Code: "USD", Symbol: "$", Name: "US Dollar", Decimals: 2},
	{Code: "EUR", Symbol: "€", Name: "Euro", Decimals: 2},
	{Code: "JPY", Symbol: "¥", Name: "Japanese Yen", Decimals: 0},
	{Code: "GBP", Symbol: "£", Name: "British Pound", Decimals: 2},
	{Code: "CAD", Symbol: "C$", Name: "Canadian Dollar", Decimals: 2},
	{Code: "AUD", Symbol: "A$", Name: "Australian Dollar", Decimals: 2},
	{Code: "SOS", Symbol: "Ssh", Name: "Somali Shilling", Decimals: 0},
	{Code: "ETB", Symbol: "Br", Name: "Ethiopian Birr", Decimals: 2},
}

// Currencies lists the supported currencies in display order.
func Currencies() []CurrencyInfo {
	return slices.Clone(currencies)
}

// Info returns presentation details, falling back to the default currency.
func (c Currency) Info() CurrencyInfo {
	for _, info := range currencies {
		if info.Code == c {
			return info
		}
	}
	return c.fallback()
}

func (c Currency) fallback() CurrencyInfo {
	for _, info := range currencies {
		if info.Code == DefaultCurrency {
			return info
		}
	}
	return CurrencyInfo{Code: DefaultCurrency}
}

func (c Currency) IsValid() bool {
	return slices.ContainsFunc(currencies, func(info CurrencyInfo) bool { return info.Code == c })
}

func (l Language) IsValid() bool {
	return l == LanguageEnglish || l == LanguageArabic
}
