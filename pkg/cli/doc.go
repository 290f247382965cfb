// Package cli implements snooze-admin, the operator command line.
//
// # Commands
//
// create-staff: create an account with the staff flag set
//
//	snooze-admin create-staff -username admin -password s3cret -first-name Ada -last-name Admin
//
// promote: grant or revoke staff on an existing account
//
//	snooze-admin promote -username alice
//	snooze-admin promote -username alice -revoke
//
// migrate: apply pending migrations, or print the schema version
//
//	snooze-admin migrate
//	snooze-admin migrate -status
//
// token: print the API token of an account
//
//	snooze-admin token -username alice
//
// Database and auth settings come from the same SNOOZE_* environment and
// config file as the server.
package cli
