package market

// AssetRegistry is the external authority for ownership and transfer of a
// uniquely-identified digital asset. Implementations are untrusted: a
// TransferCustody call may execute arbitrary code, including calls back
// into the engine, before it returns.
type AssetRegistry interface {
	// OwnerOf reports the identity currently holding the asset.
	OwnerOf(assetID uint64) ([20]byte, error)
	// IsApprovedForTransfer reports whether operator may move the asset on
	// behalf of its current holder.
	IsApprovedForTransfer(assetID uint64, operator [20]byte) (bool, error)
	// TransferCustody moves the asset from one holder to another. It fails
	// if from does not hold the asset or the caller lacks authorization.
	TransferCustody(assetID uint64, from, to [20]byte) error
}

// RegistryResolver maps a registry identity to its client. Listings carry
// the registry address; the engine resolves it on every custody move.
type RegistryResolver interface {
	Resolve(registry [20]byte) (AssetRegistry, bool)
}

// StaticRegistries is a fixed resolver backed by a map, sufficient for
// deployments where the supported registries are known at startup.
type StaticRegistries map[[20]byte]AssetRegistry

// Resolve implements the RegistryResolver interface.
func (s StaticRegistries) Resolve(registry [20]byte) (AssetRegistry, bool) {
	reg, ok := s[registry]
	if !ok || reg == nil {
		return nil, false
	}
	return reg, true
}
