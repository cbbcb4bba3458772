package twitch

import (
	"maps"
	"net/http"
	"slices"
)

// Operation identifies one Helix endpoint in the capability table.
type Operation string

// Endpoint describes how an operation is called and which scopes allow it.
// A non-empty Scopes list is satisfied when any one of them is granted.
// Form endpoints take their body as application/x-www-form-urlencoded.
type Endpoint struct {
	Method    string
	Path      string
	Scopes    []string
	NoContent bool
	Form      bool
}

const (
	// Ads
	OpStartCommercial Operation = "startCommercial"
	OpGetAdSchedule   Operation = "getAdSchedule"
	OpSnoozeNextAd    Operation = "snoozeNextAd"

	// Analytics
	OpGetExtensionAnalytics Operation = "getExtensionAnalytics"
	OpGetGameAnalytics      Operation = "getGameAnalytics"

	// Bits
	OpGetBitsLeaderboard       Operation = "getBitsLeaderboard"
	OpGetCheermotes            Operation = "getCheermotes"
	OpGetExtensionTransactions Operation = "getExtensionTransactions"

	// Channels
	OpGetChannelInformation    Operation = "getChannelInformation"
	OpModifyChannelInformation Operation = "modifyChannelInformation"
	OpGetChannelEditors        Operation = "getChannelEditors"
	OpGetFollowedChannels      Operation = "getFollowedChannels"
	OpGetChannelFollowers      Operation = "getChannelFollowers"

	// Channel points
	OpCreateCustomRewards       Operation = "createCustomRewards"
	OpDeleteCustomReward        Operation = "deleteCustomReward"
	OpGetCustomReward           Operation = "getCustomReward"
	OpGetCustomRewardRedemption Operation = "getCustomRewardRedemption"
	OpUpdateCustomReward        Operation = "updateCustomReward"
	OpUpdateRedemptionStatus    Operation = "updateRedemptionStatus"

	// Charity
	OpGetCharityCampaign          Operation = "getCharityCampaign"
	OpGetCharityCampaignDonations Operation = "getCharityCampaignDonations"

	// Chat
	OpGetChatters          Operation = "getChatters"
	OpGetChannelEmotes     Operation = "getChannelEmotes"
	OpGetGlobalEmotes      Operation = "getGlobalEmotes"
	OpGetEmoteSets         Operation = "getEmoteSets"
	OpGetChannelChatBadges Operation = "getChannelChatBadges"
	OpGetGlobalChatBadges  Operation = "getGlobalChatBadges"
	OpGetChatSettings      Operation = "getChatSettings"
	OpGetUserEmotes        Operation = "getUserEmotes"
	OpUpdateChatSettings   Operation = "updateChatSettings"
	OpSendChatAnnouncement Operation = "sendChatAnnouncement"
	OpSendAShoutout        Operation = "sendAShoutout"
	OpSendChatMessage      Operation = "sendChatMessage"
	OpGetUserChatColor     Operation = "getUserChatColor"
	OpUpdateUserChatColor  Operation = "updateUserChatColor"

	// Clips
	OpCreateClip Operation = "createClip"
	OpGetClips   Operation = "getClips"

	// Conduits
	OpGetConduits         Operation = "getConduits"
	OpCreateConduits      Operation = "createConduits"
	OpUpdateConduits      Operation = "updateConduits"
	OpDeleteConduit       Operation = "deleteConduit"
	OpGetConduitShards    Operation = "getConduitShards"
	OpUpdateConduitShards Operation = "updateConduitShards"

	// Content classification labels
	OpGetContentClassificationLabels Operation = "getContentClassificationLabels"

	// Entitlements
	OpGetDropsEntitlements    Operation = "getDropsEntitlements"
	OpUpdateDropsEntitlements Operation = "updateDropsEntitlements"

	// Extensions
	OpGetExtensionConfigurationSegment  Operation = "getExtensionConfigurationSegment"
	OpSetExtensionConfigurationSegment  Operation = "setExtensionConfigurationSegment"
	OpSetExtensionRequiredConfiguration Operation = "setExtensionRequiredConfiguration"
	OpSendExtensionPubSubMessage        Operation = "sendExtensionPubSubMessage"
	OpGetExtensionLiveChannels          Operation = "getExtensionLiveChannels"
	OpGetExtensionSecrets               Operation = "getExtensionSecrets"
	OpCreateExtensionSecret             Operation = "createExtensionSecret"
	OpSendExtensionChatMessage          Operation = "sendExtensionChatMessage"
	OpGetExtensions                     Operation = "getExtensions"
	OpGetReleasedExtensions             Operation = "getReleasedExtensions"
	OpGetExtensionBitsProducts          Operation = "getExtensionBitsProducts"
	OpUpdateExtensionBitsProduct        Operation = "updateExtensionBitsProduct"

	// EventSub
	OpCreateEventSubSubscription Operation = "createEventSubSubscription"
	OpDeleteEventSubSubscription Operation = "deleteEventSubSubscription"
	OpGetEventSubSubscriptions   Operation = "getEventSubSubscriptions"

	// Games
	OpGetTopGames Operation = "getTopGames"
	OpGetGames    Operation = "getGames"

	// Goals
	OpGetCreatorGoals Operation = "getCreatorGoals"

	// Guest Star
	OpGetChannelGuestStarSettings    Operation = "getChannelGuestStarSettings"
	OpUpdateChannelGuestStarSettings Operation = "updateChannelGuestStarSettings"
	OpGetGuestStarSession            Operation = "getGuestStarSession"
	OpCreateGuestStarSession         Operation = "createGuestStarSession"
	OpEndGuestStarSession            Operation = "endGuestStarSession"
	OpGetGuestStarInvites            Operation = "getGuestStarInvites"
	OpSendGuestStarInvite            Operation = "sendGuestStarInvite"
	OpDeleteGuestStarInvite          Operation = "deleteGuestStarInvite"
	OpAssignGuestStarSlot            Operation = "assignGuestStarSlot"
	OpUpdateGuestStarSlot            Operation = "updateGuestStarSlot"
	OpDeleteGuestStarSlot            Operation = "deleteGuestStarSlot"
	OpUpdateGuestStarSlotSettings    Operation = "updateGuestStarSlotSettings"

	// Hype train
	OpGetHypeTrainEvents Operation = "getHypeTrainEvents"

	// Moderation
	OpCheckAutoModStatus        Operation = "checkAutoModStatus"
	OpManageHeldAutoModMessages Operation = "manageHeldAutoModMessages"
	OpGetAutoModSettings        Operation = "getAutoModSettings"
	OpUpdateAutoModSettings     Operation = "updateAutoModSettings"
	OpGetBannedUsers            Operation = "getBannedUsers"
	OpBanUser                   Operation = "banUser"
	OpUnbanUser                 Operation = "unbanUser"
	OpGetUnbanRequests          Operation = "getUnbanRequests"
	OpResolveUnbanRequests      Operation = "resolveUnbanRequests"
	OpGetBlockedTerms           Operation = "getBlockedTerms"
	OpAddBlockedTerm            Operation = "addBlockedTerm"
	OpRemoveBlockedTerm         Operation = "removeBlockedTerm"
	OpDeleteChatMessages        Operation = "deleteChatMessages"
	OpGetModeratedChannels      Operation = "getModeratedChannels"
	OpGetModerators             Operation = "getModerators"
	OpAddChannelModerator       Operation = "addChannelModerator"
	OpRemoveChannelModerator    Operation = "removeChannelModerator"
	OpGetVIPs                   Operation = "getVIPs"
	OpAddChannelVIP             Operation = "addChannelVIP"
	OpRemoveChannelVIP          Operation = "removeChannelVIP"
	OpUpdateShieldModeStatus    Operation = "updateShieldModeStatus"
	OpGetShieldModeStatus       Operation = "getShieldModeStatus"

	// Polls
	OpGetPolls   Operation = "getPolls"
	OpCreatePoll Operation = "createPoll"
	OpEndPoll    Operation = "endPoll"

	// Predictions
	OpGetPredictions   Operation = "getPredictions"
	OpCreatePrediction Operation = "createPrediction"
	OpEndPrediction    Operation = "endPrediction"

	// Raids
	OpStartARaid  Operation = "startARaid"
	OpCancelARaid Operation = "cancelARaid"

	// Schedule
	OpGetChannelStreamSchedule           Operation = "getChannelStreamSchedule"
	OpGetChannelICalendar                Operation = "getChannelICalendar"
	OpUpdateChannelStreamSchedule        Operation = "updateChannelStreamSchedule"
	OpCreateChannelStreamScheduleSegment Operation = "createChannelStreamScheduleSegment"
	OpUpdateChannelStreamScheduleSegment Operation = "updateChannelStreamScheduleSegment"
	OpDeleteChannelStreamScheduleSegment Operation = "deleteChannelStreamScheduleSegment"

	// Search
	OpSearchCategories Operation = "searchCategories"
	OpSearchChannels   Operation = "searchChannels"

	// Streams
	OpGetStreamKey       Operation = "getStreamKey"
	OpGetStreams         Operation = "getStreams"
	OpGetFollowedStreams Operation = "getFollowedStreams"
	OpCreateStreamMarker Operation = "createStreamMarker"
	OpGetStreamMarkers   Operation = "getStreamMarkers"

	// Subscriptions
	OpGetBroadcasterSubscriptions Operation = "getBroadcasterSubscriptions"
	OpCheckUserSubscription       Operation = "checkUserSubscription"

	// Tags
	OpGetAllStreamTags Operation = "getAllStreamTags"
	OpGetStreamTags    Operation = "getStreamTags"

	// Teams
	OpGetChannelTeams Operation = "getChannelTeams"
	OpGetTeams        Operation = "getTeams"

	// Users
	OpGetUsers                Operation = "getUsers"
	OpUpdateUser              Operation = "updateUser"
	OpGetUserBlockList        Operation = "getUserBlockList"
	OpBlockUser               Operation = "blockUser"
	OpUnblockUser             Operation = "unblockUser"
	OpGetUserExtensions       Operation = "getUserExtensions"
	OpGetUserActiveExtensions Operation = "getUserActiveExtensions"
	OpUpdateUserExtensions    Operation = "updateUserExtensions"

	// Videos
	OpGetVideos    Operation = "getVideos"
	OpDeleteVideos Operation = "deleteVideos"

	// Whispers
	OpSendWhisper Operation = "sendWhisper"
)

var endpoints = map[Operation]Endpoint{
	OpStartCommercial: {Method: http.MethodPost, Path: "/channels/commercial", Scopes: []string{"channel:edit:commercial"}},
	OpGetAdSchedule:   {Method: http.MethodGet, Path: "/channels/ads", Scopes: []string{"channel:read:ads"}},
	OpSnoozeNextAd:    {Method: http.MethodDelete, Path: "/channels/ads/schedule/snooze", Scopes: []string{"channel:manage:ads"}},

	OpGetExtensionAnalytics: {Method: http.MethodGet, Path: "/analytics/extensions", Scopes: []string{"analytics:read:extensions"}},
	OpGetGameAnalytics:      {Method: http.MethodGet, Path: "/analytics/games", Scopes: []string{"analytics:read:games"}},

	OpGetBitsLeaderboard:       {Method: http.MethodGet, Path: "/bits/leaderboard", Scopes: []string{"bits:read"}},
	OpGetCheermotes:            {Method: http.MethodGet, Path: "/bits/cheermotes"},
	OpGetExtensionTransactions: {Method: http.MethodGet, Path: "/extensions/transactions"},

	OpGetChannelInformation:    {Method: http.MethodGet, Path: "/channels"},
	OpModifyChannelInformation: {Method: http.MethodPatch, Path: "/channels", Scopes: []string{"channel:manage:broadcast"}},
	OpGetChannelEditors:        {Method: http.MethodGet, Path: "/channels/editors", Scopes: []string{"channel:read:editors"}},
	OpGetFollowedChannels:      {Method: http.MethodGet, Path: "/channels/followed", Scopes: []string{"user:read:follows"}},
	OpGetChannelFollowers:      {Method: http.MethodGet, Path: "/channels/followers", Scopes: []string{"moderator:read:followers"}},

	OpCreateCustomRewards:       {Method: http.MethodPost, Path: "/channel_points/custom_rewards", Scopes: []string{"channel:manage:redemptions"}},
	OpDeleteCustomReward:        {Method: http.MethodDelete, Path: "/channel_points/custom_rewards", Scopes: []string{"channel:manage:redemptions"}, NoContent: true},
	OpGetCustomReward:           {Method: http.MethodGet, Path: "/channel_points/custom_rewards", Scopes: []string{"channel:read:redemptions", "channel:manage:redemptions"}},
	OpGetCustomRewardRedemption: {Method: http.MethodGet, Path: "/channel_points/custom_rewards/redemptions", Scopes: []string{"channel:read:redemptions", "channel:manage:redemptions"}},
	OpUpdateCustomReward:        {Method: http.MethodPatch, Path: "/channel_points/custom_rewards", Scopes: []string{"channel:manage:redemptions"}},
	OpUpdateRedemptionStatus:    {Method: http.MethodPatch, Path: "/channel_points/custom_rewards/redemptions", Scopes: []string{"channel:manage:redemptions"}},

	OpGetCharityCampaign:          {Method: http.MethodGet, Path: "/charity/campaigns", Scopes: []string{"channel:read:charity"}},
	OpGetCharityCampaignDonations: {Method: http.MethodGet, Path: "/charity/donations", Scopes: []string{"channel:read:charity"}},

	OpGetChatters:          {Method: http.MethodGet, Path: "/chat/chatters", Scopes: []string{"moderator:read:chatters"}},
	OpGetChannelEmotes:     {Method: http.MethodGet, Path: "/chat/emotes"},
	OpGetGlobalEmotes:      {Method: http.MethodGet, Path: "/chat/emotes/global"},
	OpGetEmoteSets:         {Method: http.MethodGet, Path: "/chat/emotes/set"},
	OpGetChannelChatBadges: {Method: http.MethodGet, Path: "/chat/badges"},
	OpGetGlobalChatBadges:  {Method: http.MethodGet, Path: "/chat/badges/global"},
	OpGetChatSettings:      {Method: http.MethodGet, Path: "/chat/settings"},
	OpGetUserEmotes:        {Method: http.MethodGet, Path: "/chat/emotes/user", Scopes: []string{"user:read:emotes"}},
	OpUpdateChatSettings:   {Method: http.MethodPatch, Path: "/chat/settings", Scopes: []string{"moderator:manage:chat_settings"}},
	OpSendChatAnnouncement: {Method: http.MethodPost, Path: "/chat/announcements", Scopes: []string{"moderator:manage:announcements"}},
	OpSendAShoutout:        {Method: http.MethodPost, Path: "/chat/shoutouts", Scopes: []string{"moderator:manage:shoutouts"}},
	OpSendChatMessage:      {Method: http.MethodPost, Path: "/chat/messages", Scopes: []string{"user:write:chat"}},
	OpGetUserChatColor:     {Method: http.MethodGet, Path: "/chat/users"},
	OpUpdateUserChatColor:  {Method: http.MethodPut, Path: "/chat/color", Scopes: []string{"user:manage:chat_color"}},

	OpCreateClip: {Method: http.MethodPost, Path: "/clips", Scopes: []string{"clips:edit"}},
	OpGetClips:   {Method: http.MethodGet, Path: "/clips"},

	OpGetConduits:         {Method: http.MethodGet, Path: "/eventsub/conduits"},
	OpCreateConduits:      {Method: http.MethodPost, Path: "/eventsub/conduits"},
	OpUpdateConduits:      {Method: http.MethodPatch, Path: "/eventsub/conduits"},
	OpDeleteConduit:       {Method: http.MethodDelete, Path: "/eventsub/conduits", NoContent: true},
	OpGetConduitShards:    {Method: http.MethodGet, Path: "/eventsub/conduits/shards"},
	OpUpdateConduitShards: {Method: http.MethodPatch, Path: "/eventsub/conduits/shards"},

	OpGetContentClassificationLabels: {Method: http.MethodGet, Path: "/content_classification_labels"},

	OpGetDropsEntitlements:    {Method: http.MethodGet, Path: "/entitlements/drops"},
	OpUpdateDropsEntitlements: {Method: http.MethodPatch, Path: "/entitlements/drops"},

	OpGetExtensionConfigurationSegment:  {Method: http.MethodGet, Path: "/extensions/configurations"},
	OpSetExtensionConfigurationSegment:  {Method: http.MethodPut, Path: "/extensions/configurations"},
	OpSetExtensionRequiredConfiguration: {Method: http.MethodPut, Path: "/extensions/required_configuration"},
	OpSendExtensionPubSubMessage:        {Method: http.MethodPost, Path: "/extensions/pubsub"},
	OpGetExtensionLiveChannels:          {Method: http.MethodGet, Path: "/extensions/live"},
	OpGetExtensionSecrets:               {Method: http.MethodGet, Path: "/extensions/jwt/secrets"},
	OpCreateExtensionSecret:             {Method: http.MethodPost, Path: "/extensions/jwt/secrets"},
	OpSendExtensionChatMessage:          {Method: http.MethodPost, Path: "/extensions/chat"},
	OpGetExtensions:                     {Method: http.MethodGet, Path: "/extensions"},
	OpGetReleasedExtensions:             {Method: http.MethodGet, Path: "/extensions/released"},
	OpGetExtensionBitsProducts:          {Method: http.MethodGet, Path: "/bits/extensions"},
	OpUpdateExtensionBitsProduct:        {Method: http.MethodPut, Path: "/bits/extensions"},

	OpCreateEventSubSubscription: {Method: http.MethodPost, Path: "/eventsub/subscriptions", Scopes: []string{"channel:read:subscriptions"}},
	OpDeleteEventSubSubscription: {Method: http.MethodDelete, Path: "/eventsub/subscriptions", NoContent: true},
	OpGetEventSubSubscriptions:   {Method: http.MethodGet, Path: "/eventsub/subscriptions"},

	OpGetTopGames: {Method: http.MethodGet, Path: "/games/top"},
	OpGetGames:    {Method: http.MethodGet, Path: "/games"},

	OpGetCreatorGoals: {Method: http.MethodGet, Path: "/goals", Scopes: []string{"channel:read:goals"}},

	OpGetChannelGuestStarSettings:    {Method: http.MethodGet, Path: "/guest_star/channel_settings", Scopes: []string{"channel:read:guest_star", "channel:manage:guest_star", "moderator:read:guest_star", "moderator:manage:guest_star"}},
	OpUpdateChannelGuestStarSettings: {Method: http.MethodPut, Path: "/guest_star/channel_settings", Scopes: []string{"channel:manage:guest_star"}},
	OpGetGuestStarSession:            {Method: http.MethodGet, Path: "/guest_star/sessions", Scopes: []string{"channel:read:guest_star", "channel:manage:guest_star", "moderator:read:guest_star", "moderator:manage:guest_star"}},
	OpCreateGuestStarSession:         {Method: http.MethodPost, Path: "/guest_star/sessions", Scopes: []string{"channel:manage:guest_star"}},
	OpEndGuestStarSession:            {Method: http.MethodDelete, Path: "/guest_star/sessions", Scopes: []string{"channel:manage:guest_star"}},
	OpGetGuestStarInvites:            {Method: http.MethodGet, Path: "/guest_star/invites", Scopes: []string{"channel:read:guest_star", "channel:manage:guest_star", "moderator:read:guest_star", "moderator:manage:guest_star"}},
	OpSendGuestStarInvite:            {Method: http.MethodPost, Path: "/guest_star/invites", Scopes: []string{"channel:manage:guest_star", "moderator:manage:guest_star"}},
	OpDeleteGuestStarInvite:          {Method: http.MethodDelete, Path: "/guest_star/invites", Scopes: []string{"channel:manage:guest_star", "moderator:manage:guest_star"}},
	OpAssignGuestStarSlot:            {Method: http.MethodPost, Path: "/guest_star/slots", Scopes: []string{"channel:manage:guest_star", "moderator:manage:guest_star"}},
	OpUpdateGuestStarSlot:            {Method: http.MethodPatch, Path: "/guest_star/slots", Scopes: []string{"channel:manage:guest_star", "moderator:manage:guest_star"}},
	OpDeleteGuestStarSlot:            {Method: http.MethodDelete, Path: "/guest_star/slots", Scopes: []string{"channel:manage:guest_star", "moderator:manage:guest_star"}},
	OpUpdateGuestStarSlotSettings:    {Method: http.MethodPatch, Path: "/guest_star/slot_settings", Scopes: []string{"channel:manage:guest_star", "moderator:manage:guest_star"}},

	OpGetHypeTrainEvents: {Method: http.MethodGet, Path: "/hypetrain/events", Scopes: []string{"channel:read:hype_train"}},

	OpCheckAutoModStatus:        {Method: http.MethodPost, Path: "/moderation/enforcements/status", Scopes: []string{"moderation:read"}},
	OpManageHeldAutoModMessages: {Method: http.MethodPost, Path: "/moderation/automod/message", Scopes: []string{"moderator:manage:automod"}},
	OpGetAutoModSettings:        {Method: http.MethodGet, Path: "/moderation/automod/settings", Scopes: []string{"moderator:read:automod_settings"}},
	OpUpdateAutoModSettings:     {Method: http.MethodPut, Path: "/moderation/automod/settings", Scopes: []string{"moderator:manage:automod_settings"}},
	OpGetBannedUsers:            {Method: http.MethodGet, Path: "/moderation/banned", Scopes: []string{"moderation:read", "moderator:manage:banned_users"}},
	OpBanUser:                   {Method: http.MethodPost, Path: "/moderation/bans", Scopes: []string{"moderator:manage:banned_users"}},
	OpUnbanUser:                 {Method: http.MethodDelete, Path: "/moderation/bans", Scopes: []string{"moderator:manage:banned_users"}},
	OpGetUnbanRequests:          {Method: http.MethodGet, Path: "/moderation/unban_requests", Scopes: []string{"moderator:read:unban_requests", "moderator:manage:unban_requests"}},
	OpResolveUnbanRequests:      {Method: http.MethodPatch, Path: "/moderation/unban_requests", Scopes: []string{"moderator:manage:unban_requests"}},
	OpGetBlockedTerms:           {Method: http.MethodGet, Path: "/moderation/blocked_terms", Scopes: []string{"moderator:read:blocked_terms", "moderator:manage:blocked_terms"}},
	OpAddBlockedTerm:            {Method: http.MethodPost, Path: "/moderation/blocked_terms", Scopes: []string{"moderator:manage:blocked_terms"}},
	OpRemoveBlockedTerm:         {Method: http.MethodDelete, Path: "/moderation/blocked_terms", Scopes: []string{"moderator:manage:blocked_terms"}},
	OpDeleteChatMessages:        {Method: http.MethodDelete, Path: "/moderation/chat", Scopes: []string{"moderator:manage:chat_messages"}},
	OpGetModeratedChannels:      {Method: http.MethodGet, Path: "/moderation/channels", Scopes: []string{"user:read:moderated_channels"}},
	OpGetModerators:             {Method: http.MethodGet, Path: "/moderation/moderators", Scopes: []string{"moderation:read", "channel:manage:moderators"}},
	OpAddChannelModerator:       {Method: http.MethodPost, Path: "/moderation/moderators", Scopes: []string{"channel:manage:moderators"}},
	OpRemoveChannelModerator:    {Method: http.MethodDelete, Path: "/moderation/moderators", Scopes: []string{"channel:manage:moderators"}},
	OpGetVIPs:                   {Method: http.MethodGet, Path: "/moderation/vips", Scopes: []string{"channel:read:vips", "channel:manage:vips"}},
	OpAddChannelVIP:             {Method: http.MethodPost, Path: "/moderation/vips", Scopes: []string{"channel:manage:vips"}},
	OpRemoveChannelVIP:          {Method: http.MethodDelete, Path: "/moderation/vips", Scopes: []string{"channel:manage:vips"}},
	OpUpdateShieldModeStatus:    {Method: http.MethodPut, Path: "/moderation/shield_mode", Scopes: []string{"moderator:manage:shield_mode"}},
	OpGetShieldModeStatus:       {Method: http.MethodGet, Path: "/moderation/shield_mode", Scopes: []string{"moderator:read:shield_mode", "moderator:manage:shield_mode"}},

	OpGetPolls:   {Method: http.MethodGet, Path: "/polls", Scopes: []string{"channel:read:polls", "channel:manage:polls"}},
	OpCreatePoll: {Method: http.MethodPost, Path: "/polls", Scopes: []string{"channel:manage:polls"}},
	OpEndPoll:    {Method: http.MethodPatch, Path: "/polls", Scopes: []string{"channel:manage:polls"}},

	OpGetPredictions:   {Method: http.MethodGet, Path: "/predictions", Scopes: []string{"channel:read:predictions", "channel:manage:predictions"}},
	OpCreatePrediction: {Method: http.MethodPost, Path: "/predictions", Scopes: []string{"channel:manage:predictions"}},
	OpEndPrediction:    {Method: http.MethodPatch, Path: "/predictions", Scopes: []string{"channel:manage:predictions"}},

	OpStartARaid:  {Method: http.MethodPost, Path: "/raids", Scopes: []string{"channel:manage:raids"}},
	OpCancelARaid: {Method: http.MethodDelete, Path: "/raids", Scopes: []string{"channel:manage:raids"}},

	OpGetChannelStreamSchedule:           {Method: http.MethodGet, Path: "/schedule"},
	OpGetChannelICalendar:                {Method: http.MethodGet, Path: "/schedule/icalendar"},
	OpUpdateChannelStreamSchedule:        {Method: http.MethodPatch, Path: "/schedule/settings", Scopes: []string{"channel:manage:schedule"}},
	OpCreateChannelStreamScheduleSegment: {Method: http.MethodPost, Path: "/schedule/segment", Scopes: []string{"channel:manage:schedule"}},
	OpUpdateChannelStreamScheduleSegment: {Method: http.MethodPatch, Path: "/schedule/segment", Scopes: []string{"channel:manage:schedule"}},
	OpDeleteChannelStreamScheduleSegment: {Method: http.MethodDelete, Path: "/schedule/segment", Scopes: []string{"channel:manage:schedule"}},

	OpSearchCategories: {Method: http.MethodGet, Path: "/search/categories"},
	OpSearchChannels:   {Method: http.MethodGet, Path: "/search/channels"},

	OpGetStreamKey:       {Method: http.MethodGet, Path: "/streams/key", Scopes: []string{"channel:read:stream_key"}},
	OpGetStreams:         {Method: http.MethodGet, Path: "/streams"},
	OpGetFollowedStreams: {Method: http.MethodGet, Path: "/streams/followed", Scopes: []string{"user:read:follows"}},
	OpCreateStreamMarker: {Method: http.MethodPost, Path: "/streams/markers", Scopes: []string{"channel:manage:broadcast"}},
	OpGetStreamMarkers:   {Method: http.MethodGet, Path: "/streams/markers", Scopes: []string{"user:read:broadcast", "channel:manage:broadcast"}},

	OpGetBroadcasterSubscriptions: {Method: http.MethodGet, Path: "/subscriptions", Scopes: []string{"channel:read:subscriptions"}},
	OpCheckUserSubscription:       {Method: http.MethodGet, Path: "/subscriptions/user", Scopes: []string{"user:read:subscriptions"}},

	OpGetAllStreamTags: {Method: http.MethodGet, Path: "/tags/streams"},
	OpGetStreamTags:    {Method: http.MethodGet, Path: "/streams/tags"},

	OpGetChannelTeams: {Method: http.MethodGet, Path: "/teams/channel"},
	OpGetTeams:        {Method: http.MethodGet, Path: "/teams"},

	OpGetUsers:                {Method: http.MethodGet, Path: "/users"},
	OpUpdateUser:              {Method: http.MethodPut, Path: "/users", Scopes: []string{"user:edit"}},
	OpGetUserBlockList:        {Method: http.MethodGet, Path: "/users/blocks", Scopes: []string{"user:read:blocked_users"}},
	OpBlockUser:               {Method: http.MethodPut, Path: "/users/blocks", Scopes: []string{"user:manage:blocked_users"}},
	OpUnblockUser:             {Method: http.MethodDelete, Path: "/users/blocks", Scopes: []string{"user:manage:blocked_users"}},
	OpGetUserExtensions:       {Method: http.MethodGet, Path: "/users/extensions/list", Scopes: []string{"user:read:broadcast", "user:edit:broadcast"}},
	OpGetUserActiveExtensions: {Method: http.MethodGet, Path: "/users/extensions"},
	OpUpdateUserExtensions:    {Method: http.MethodPut, Path: "/users/extensions", Scopes: []string{"user:edit:broadcast"}},

	OpGetVideos:    {Method: http.MethodGet, Path: "/videos"},
	OpDeleteVideos: {Method: http.MethodDelete, Path: "/videos", Scopes: []string{"channel:manage:videos"}},

	OpSendWhisper: {Method: http.MethodPost, Path: "/whispers", Scopes: []string{"user:manage:whispers"}},
}

// eventSubScopes are needed by the EventSub types the overlay subscribes to
// but are not required by any REST operation.
var eventSubScopes = []string{
	"bits:read",
	"channel:moderate",
	"channel:read:subscriptions",
	"moderator:read:followers",
	"moderator:read:suspicious_users",
	"user:read:chat",
}

// LookupEndpoint returns the table entry for op.
func LookupEndpoint(op Operation) (Endpoint, bool) {
	ep, ok := endpoints[op]
	return ep, ok
}

// Operations returns every operation in the table, sorted.
func Operations() []Operation {
	return slices.Sorted(maps.Keys(endpoints))
}

// DefaultScopes is the scope manifest written into a fresh credentials file:
// every scope an operation in the table accepts plus the EventSub scopes.
func DefaultScopes() []string {
	set := make(map[string]struct{})
	for _, ep := range endpoints {
		for _, s := range ep.Scopes {
			set[s] = struct{}{}
		}
	}
	for _, s := range eventSubScopes {
		set[s] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}

// Allowed reports whether hasScope grants at least one of the endpoint's
// scopes. Endpoints without scopes are always allowed.
func (e Endpoint) Allowed(hasScope func(string) bool) bool {
	if len(e.Scopes) == 0 {
		return true
	}
	return slices.ContainsFunc(e.Scopes, hasScope)
}
