// Package mongo connects to MongoDB with retries and exposes a readiness
// check. Stores in svc/* receive the *mongo.Database returned by Connect.
package mongo
