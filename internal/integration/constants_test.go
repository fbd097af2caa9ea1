package integration_test

const (
	dbName         = "seat_booking"
	dbUser         = "test_user"
	dbPassword     = "test_password"
	dbImageName    = "postgres:17-alpine"
	cacheImageName = "redis:7"

	TestMovieTitle    = "Interstellar"
	TestMovieGenre    = "Sci-Fi"
	TestMovieLanguage = "English"

	TestHandle        = "cs_test_integration"
	TestRedirectUrl   = "https://checkout.stripe.com/c/pay/cs_test_integration"
	TestCustomerEmail = "alice@example.com"
	TestSignature     = "t=1,v1=integration"
)

var TestSeatNumbers = []string{"A1", "A2", "A3", "A4"}
