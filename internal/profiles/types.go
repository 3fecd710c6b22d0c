package profiles

// UserProfile holds a customer's account email and default delivery details.
// The defaults are refreshed from a payment event only when the customer
// ticked save-info at checkout.
type UserProfile struct {
	Username              string `dynamodbav:"username"` // PK
	Email                 string `dynamodbav:"email"`
	DefaultPhoneNumber    string `dynamodbav:"default_phone_number"`
	DefaultCountry        string `dynamodbav:"default_country"`
	DefaultPostcode       string `dynamodbav:"default_postcode"`
	DefaultTownOrCity     string `dynamodbav:"default_town_or_city"`
	DefaultStreetAddress1 string `dynamodbav:"default_street_address1"`
	DefaultStreetAddress2 string `dynamodbav:"default_street_address2"`
	DefaultCounty         string `dynamodbav:"default_county"`
}
