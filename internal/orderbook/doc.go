// Package orderbook reconciles the stored order snapshot of an item with the
// market's live orders.
//
// Reconciliation is snapshot-replace: every stored order for the item is
// deleted and the freshly fetched, platform-filtered set is inserted in the
// same transaction. The market API has no delta feed, so full replacement is
// the only way to drop filled or withdrawn orders.
package orderbook
