package mailparse

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sbiAlert = Email{
		ID:      "msg-sbi",
		From:    "SBI Card <onlinesbicard@sbicard.com>",
		Subject: "Transaction Alert from SBI Card",
		Body: "Dear Cardholder,\r\n\r\nRs.110.00 spent on your SBI Credit Card ending 0468 at " +
			"BalajiBartanBhandar on 30/01/26. Trxn. not done by you? Report at https://sbicard.com/Dispute",
	}
	hdfcAlert = Email{
		ID:      "msg-hdfc",
		From:    "HDFC Bank InstaAlerts <alerts@hdfcbank.net>",
		Subject: "Alert : Update on your HDFC Bank Credit Card",
		Body: "<html><body><p>Dear Customer,</p><p>Rs.2,345.50 is debited from your HDFC Bank Credit Card " +
			"ending 1234 towards AMAZON PAY INDIA on 30 Jan, 2026 at 14:05:11.</p></body></html>",
	}
	iciciAlert = Email{
		ID:      "msg-icici",
		From:    "ICICI Bank <credit_cards@icicibank.com>",
		Subject: "Transaction alert for your ICICI Bank Credit Card",
		Body: "Your ICICI Bank Credit Card XX9876 has been used for a transaction of INR 1,250.00 on " +
			"Feb 05, 2026 at 12:34:56. Info: SWIGGY BANGALORE. The Available Credit Limit on your card is INR 45,000.00.",
	}
	axisAlert = Email{
		ID:      "msg-axis",
		From:    "Axis Bank Alerts <alerts@axisbank.com>",
		Subject: "Transaction alert on Axis Bank Credit Card",
		Body: "Transaction alert: INR 2,499.00 spent on your Axis Bank Credit Card no. XX4321 at " +
			"FLIPKART INTERNET on 06-02-2026 18:22:10 IST.",
	}
	kotakAlert = Email{
		ID:      "msg-kotak",
		From:    "Kotak Mahindra Bank <creditcardalerts@kotak.com>",
		Subject: "Kotak Credit Card transaction",
		Body:    "A transaction of Rs. 799.00 has been made on your Kotak Credit Card XX5555 at NETFLIX on 07-Feb-2026.",
	}
)

func TestRegistry_SBIAlert(t *testing.T) {
	res, outcome := DefaultRegistry().Parse(sbiAlert)
	require.Equal(t, OutcomeParsed, outcome)
	require.NotNil(t, res)

	assert.Equal(t, "SBI", res.Bank)
	assert.True(t, res.Amount.Equal(decimal.RequireFromString("110.00")), "amount %s", res.Amount)
	assert.Equal(t, "0468", res.CardLast4)
	assert.Equal(t, "BalajiBartanBhandar", res.MerchantName)
	require.NotNil(t, res.TransactionDate)
	assert.Equal(t, time.Date(2026, time.January, 30, 0, 0, 0, 0, time.UTC), *res.TransactionDate)
	m, err := res.Money()
	require.NoError(t, err)
	assert.Equal(t, int64(11000), m.Cents)
}

func TestRegistry_EachBank(t *testing.T) {
	tests := []struct {
		name     string
		email    Email
		bank     string
		amount   string
		merchant string
		card     string
		date     time.Time
	}{
		{"hdfc html body", hdfcAlert, "HDFC", "2345.50", "AMAZON PAY INDIA", "1234", time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC)},
		{"icici info anchor", iciciAlert, "ICICI", "1250.00", "SWIGGY BANGALORE", "9876", time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)},
		{"axis", axisAlert, "Axis", "2499.00", "FLIPKART INTERNET", "4321", time.Date(2026, 2, 6, 0, 0, 0, 0, time.UTC)},
		{"kotak", kotakAlert, "Kotak", "799.00", "NETFLIX", "5555", time.Date(2026, 2, 7, 0, 0, 0, 0, time.UTC)},
	}

	reg := DefaultRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, outcome := reg.Parse(tt.email)
			require.Equal(t, OutcomeParsed, outcome)
			require.NotNil(t, res)

			assert.Equal(t, tt.bank, res.Bank)
			assert.True(t, res.Amount.Equal(decimal.RequireFromString(tt.amount)), "amount %s", res.Amount)
			assert.Equal(t, tt.merchant, res.MerchantName)
			assert.Equal(t, tt.card, res.CardLast4)
			require.NotNil(t, res.TransactionDate)
			assert.Equal(t, tt.date, *res.TransactionDate)
		})
	}
}

func TestRegistry_ExclusionsWinOverKeywords(t *testing.T) {
	reg := DefaultRegistry()

	otp := sbiAlert
	otp.Subject = "OTP for your SBI Credit Card transaction"
	otp.Body = "123456 is the OTP for Rs.110.00 at BalajiBartanBhandar on your SBI Credit Card ending 0468."

	statement := hdfcAlert
	statement.Subject = "Your HDFC Bank Credit Card Statement for January 2026"

	rewards := iciciAlert
	rewards.Subject = "You have earned 250 reward points on your ICICI Bank Credit Card"

	promo := axisAlert
	promo.Subject = "Exclusive deal: get INR 500 cashback offer on your Axis Bank Credit Card"

	for name, e := range map[string]Email{"otp": otp, "statement": statement, "rewards": rewards, "promo": promo} {
		t.Run(name, func(t *testing.T) {
			res, outcome := reg.Parse(e)
			assert.Equal(t, OutcomeExcluded, outcome)
			assert.Nil(t, res)
		})
	}
}

func TestRegistry_UnsupportedSender(t *testing.T) {
	e := sbiAlert
	e.From = "alerts@somebank.example"

	res, outcome := DefaultRegistry().Parse(e)
	assert.Equal(t, OutcomeUnsupported, outcome)
	assert.Nil(t, res)
}

func TestRegistry_SenderAloneIsNotEnough(t *testing.T) {
	// Right domain but no card keywords: a newsletter, not an alert.
	e := Email{
		From:    "news@sbicard.com",
		Subject: "Welcome to SBI",
		Body:    "Thanks for joining us.",
	}
	_, outcome := DefaultRegistry().Parse(e)
	assert.Equal(t, OutcomeUnsupported, outcome)
}

func TestRegistry_CardKeyword(t *testing.T) {
	reg := DefaultRegistry()

	cardOnly := Email{
		ID:      "msg-sbi-card",
		From:    "onlinesbicard@sbicard.com",
		Subject: "Transaction Alert",
		Body:    "Rs.110.00 spent on your SBI Card ending 0468 at BalajiBartanBhandar on 01-02-26.",
	}
	res, outcome := reg.Parse(cardOnly)
	require.Equal(t, OutcomeParsed, outcome)
	assert.Equal(t, "SBI", res.Bank)
	assert.Equal(t, "0468", res.CardLast4)
	assert.Equal(t, "BalajiBartanBhandar", res.MerchantName)
	require.NotNil(t, res.TransactionDate)
	assert.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), *res.TransactionDate)

	// "cardholder" is not the word card.
	noCard := cardOnly
	noCard.Body = "Dear cardholder, Rs.110.00 was paid to your SBI account."
	_, outcome = reg.Parse(noCard)
	assert.Equal(t, OutcomeUnsupported, outcome)
}

func TestRegistry_OversizedAmount(t *testing.T) {
	e := sbiAlert
	e.Body = "Rs.123456789012345678901.00 spent on your SBI Credit Card ending 0468 at BalajiBartanBhandar on 30/01/26."

	res, outcome := DefaultRegistry().Parse(e)
	assert.Equal(t, OutcomeNoAmount, outcome)
	assert.Nil(t, res)

	e.Body = "Rs.10,00,00,00,000.00 spent on your SBI Credit Card ending 0468 at BalajiBartanBhandar on 30/01/26."
	res, outcome = DefaultRegistry().Parse(e)
	require.Equal(t, OutcomeParsed, outcome)
	m, err := res.Money()
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000_000_000), m.Cents)
}

func TestResult_Money_OutOfRange(t *testing.T) {
	_, err := Result{Amount: decimal.RequireFromString("99999999999")}.Money()
	assert.Error(t, err)
}

func TestResult_UnparsedDateOmittedFromJSON(t *testing.T) {
	b, err := json.Marshal(Result{Bank: "SBI", Amount: decimal.NewFromInt(99), MerchantName: UnknownMerchant})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "transaction_date")

	day := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	b, err = json.Marshal(Result{Bank: "SBI", Amount: decimal.NewFromInt(99), TransactionDate: &day})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"transaction_date":"2026-02-01T00:00:00Z"`)
}

func TestRegistry_NoAmount(t *testing.T) {
	e := sbiAlert
	e.Body = "Your SBI Credit Card ending 0468 was used at BalajiBartanBhandar on 30/01/26."

	res, outcome := DefaultRegistry().Parse(e)
	assert.Equal(t, OutcomeNoAmount, outcome)
	assert.Nil(t, res)
}

func TestRegistry_FirstMatchWins(t *testing.T) {
	claimAll := Rule{
		Name:     "Catchall",
		Sender:   senderDomain("sbicard.com"),
		Amount:   amountPattern,
		Merchant: nil,
	}
	reg := NewRegistry([]Parser{claimAll, DefaultRules()[1]}, nil)

	res, outcome := reg.Parse(sbiAlert)
	require.Equal(t, OutcomeParsed, outcome)
	assert.Equal(t, "Catchall", res.Bank)
	assert.Equal(t, UnknownMerchant, res.MerchantName)
	assert.Empty(t, res.CardLast4)
	assert.Nil(t, res.TransactionDate)
}

func TestRule_Defaults(t *testing.T) {
	e := Email{
		From:    "onlinesbicard@sbicard.com",
		Subject: "Transaction Alert from SBI Card",
		Body:    "Rs.99 spent on your SBI Credit Card.",
	}
	res, outcome := DefaultRegistry().Parse(e)
	require.Equal(t, OutcomeParsed, outcome)
	assert.True(t, res.Amount.Equal(decimal.NewFromInt(99)))
	assert.Equal(t, UnknownMerchant, res.MerchantName)
	assert.Empty(t, res.CardLast4)

	received := time.Date(2026, 3, 4, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-04", res.DateOr(received).String())
}

func TestRegistry_Banks(t *testing.T) {
	assert.Equal(t, []string{"HDFC", "SBI", "ICICI", "Axis", "Kotak"}, DefaultRegistry().Banks())
}

func TestCategorizer(t *testing.T) {
	c := DefaultCategorizer()

	tests := map[string]string{
		"SWIGGY BANGALORE":    "Food",
		"AMAZON PAY INDIA":    "Shopping",
		"NETFLIX":             "Entertainment",
		"Uber India":          "Transport",
		"Apollo Pharmacy":     "Health",
		"BalajiBartanBhandar": "Shopping",
		"Unknown":             OtherCategory,
		"":                    OtherCategory,
		"XYZ TRADERS":         OtherCategory,
		"INDIAN OIL PETROL":   "Transport",
		"McDonald's":          "Food",
		"D-MART":              "Shopping",
		"DMART READY":         "Shopping",
	}
	for merchant, want := range tests {
		assert.Equal(t, want, c.Categorize(merchant), merchant)
	}
}

func TestCategorizer_WholeWordsOnly(t *testing.T) {
	c := DefaultCategorizer()

	tests := map[string]string{
		"MOTOROLA STORE":      "Shopping", // "store", not "ola"
		"COCA COLA BEVERAGES": OtherCategory,
		"LAS VEGAS GRILL":     OtherCategory,
		"SMARTPHONE HUB":      OtherCategory,
		"Foodland Traders":    OtherCategory,
		"OLA CABS":            "Transport",
		"Mahanagar Gas Ltd":   "Bills",
		"Reliance Smart Mart": "Shopping",
	}
	for merchant, want := range tests {
		assert.Equal(t, want, c.Categorize(merchant), merchant)
	}
}
